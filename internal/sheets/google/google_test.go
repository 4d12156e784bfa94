package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"bilancio/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/nonexistent/creds.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", " sheet-1 ")
	t.Setenv("SHEETS_REPORT_NAME", "Budget")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")

	cfg := ConfigFromEnv()
	if cfg.SpreadsheetID != "sheet-1" || cfg.ReportName != "Budget" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.CredentialsFile != "/etc/creds.json" {
		t.Errorf("CredentialsFile = %q, want ADC fallback", cfg.CredentialsFile)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Bilancio", 2025, "2025 Bilancio"},
		{"Report", 2024, "2024 Report"},
		{"", 2023, ""}, // Empty base returns empty
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestSheetTitle(t *testing.T) {
	if got := sheetTitle("Bilancio", 2024, "owner-1"); got != "2024 Bilancio owner-1" {
		t.Errorf("sheetTitle = %q", got)
	}
	long := sheetTitle("Bilancio", 2024, strings.Repeat("ж", 200))
	if n := len([]rune(long)); n != maxTitleLength {
		t.Errorf("title length = %d, want %d", n, maxTitleLength)
	}
	if got := quoteSheet("2024 O'Brien"); got != "'2024 O''Brien'" {
		t.Errorf("quoteSheet = %q", got)
	}
}

func sampleReport() core.YearlyReport {
	months := make([]core.MonthlyReport, 12)
	for i := range months {
		months[i] = core.MonthlyReport{Month: i + 1, Year: 2024}
	}
	months[0] = core.MonthlyReport{Month: 1, Year: 2024, Income: core.Cents(500000), Expense: core.Cents(190000), Balance: core.Cents(310000), TransactionCount: 3}
	return core.YearlyReport{
		Year: 2024,
		Summary: core.Summary{
			TotalIncome:      core.Cents(500000),
			TotalExpense:     core.Cents(190000),
			Balance:          core.Cents(310000),
			TransactionCount: 3,
		},
		MonthlyData: months,
		TopCategories: []core.CategoryReport{
			{CategoryID: "c1", CategoryName: "Аренда", Expense: core.Cents(150000), TransactionCount: 1},
		},
	}
}

func TestYearlyRows(t *testing.T) {
	rows := yearlyRows("owner-1", sampleReport())

	// 6 totals + blank + header + 12 months + blank + header + 1 category
	if len(rows) != 23 {
		t.Fatalf("rows = %d, want 23", len(rows))
	}
	if rows[4][1] != "3100.00" {
		t.Errorf("balance cell = %v", rows[4][1])
	}
	if rows[8][0] != "January" || rows[8][2] != "1900.00" || rows[8][4] != 3 {
		t.Errorf("january row = %v", rows[8])
	}
	if rows[19][0] != "December" || rows[19][1] != "0.00" {
		t.Errorf("december row = %v", rows[19])
	}
	if rows[22][0] != "Аренда" || rows[22][3] != "0.00" {
		t.Errorf("category row = %v", rows[22])
	}
}

// fakeSheets records the calls made by the client.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared []string
	updated map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/sheet-1"):
		type props struct {
			Title string `json:"title"`
		}
		type sheet struct {
			Properties props `json:"properties"`
		}
		var out struct {
			Sheets []sheet `json:"sheets"`
		}
		for _, t := range f.titles {
			out.Sheets = append(out.Sheets, sheet{Properties: props{Title: t}})
		}
		json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.titles = append(f.titles, rq.AddSheet.Properties.Title)
		}
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, path)
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		json.Unmarshal(body, &vr)
		f.updated[path] = vr.Values
		w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestWriteYearlyReport_CreatesTabAndWrites(t *testing.T) {
	fake := &fakeSheets{updated: map[string][][]any{}}
	c := newFakeClient(t, fake)

	ref, err := c.WriteYearlyReport(context.Background(), "owner-1", sampleReport())
	if err != nil {
		t.Fatalf("WriteYearlyReport: %v", err)
	}
	if ref != "'2024 Bilancio owner-1'!A1:E23" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.added) != 1 || fake.added[0] != "2024 Bilancio owner-1" {
		t.Errorf("added sheets = %v", fake.added)
	}
	if len(fake.cleared) != 1 {
		t.Errorf("cleared = %v", fake.cleared)
	}
	if len(fake.updated) != 1 {
		t.Fatalf("updates = %d, want 1", len(fake.updated))
	}
	for _, rows := range fake.updated {
		if len(rows) != 23 {
			t.Errorf("written rows = %d, want 23", len(rows))
		}
	}

	// second write reuses the tab
	if _, err := c.WriteYearlyReport(context.Background(), "owner-1", sampleReport()); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if len(fake.added) != 1 {
		t.Errorf("tab added again: %v", fake.added)
	}
}

func TestWriteYearlyReport_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.WriteYearlyReport(context.Background(), "o", sampleReport()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
