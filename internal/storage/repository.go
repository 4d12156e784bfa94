// Package storage is the SQL backend of the ledger, on SQLite (modernc) or
// PostgreSQL (lib/pq) through sqlx. Schema changes ship as embedded
// golang-migrate migrations, one directory per driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/query"
)

type Repository struct {
	db *DB
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository opens the database, applies migrations and returns a ready
// repository.
func NewRepository(ctx context.Context, driver Driver, dsn string) (*Repository, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.InfoContext(ctx, "Database ready", "driver", driver)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

const transactionColumns = `id, owner_id, amount_cents, description, txn_date, type,
	category_id, tags, notes, created_at, updated_at`

type transactionRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	AmountCents int64          `db:"amount_cents"`
	Description string         `db:"description"`
	TxnDate     string         `db:"txn_date"`
	Type        string         `db:"type"`
	CategoryID  sql.NullString `db:"category_id"`
	Tags        string         `db:"tags"`
	Notes       string         `db:"notes"`
	CreatedAt   int64          `db:"created_at"`
	UpdatedAt   int64          `db:"updated_at"`
}

func (row transactionRow) toCore() (core.Transaction, error) {
	d, err := core.ParseDate(row.TxnDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: stored date: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Amount:      core.Cents(row.AmountCents),
		Description: row.Description,
		Date:        d,
		Type:        core.TransactionType(row.Type),
		CategoryID:  row.CategoryID.String,
		Tags:        core.SplitTags(row.Tags),
		Notes:       row.Notes,
		CreatedAt:   time.UnixMicro(row.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMicro(row.UpdatedAt).UTC(),
	}, nil
}

func toCoreAll(rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) Create(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions (
		id, owner_id, amount_cents, description, description_fold, txn_date, type,
		category_id, tags, notes, notes_fold, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Amount.Cents, t.Description, core.Fold(t.Description), t.Date.String(), string(t.Type),
		nullable(t.CategoryID), core.JoinTags(t.Tags), t.Notes, core.Fold(t.Notes),
		t.CreatedAt.UnixMicro(), t.UpdatedAt.UnixMicro(),
	)
	if err != nil {
		return wrapErr("create transaction", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	var row transactionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, wrapErr("get transaction", err)
	}
	return row.toCore()
}

// Update rewrites the mutable fields. created_at is never touched.
func (r *Repository) Update(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		amount_cents = ?, description = ?, description_fold = ?, txn_date = ?, type = ?,
		category_id = ?, tags = ?, notes = ?, notes_fold = ?, updated_at = ?
	WHERE id = ? AND owner_id = ?`,
		t.Amount.Cents, t.Description, core.Fold(t.Description), t.Date.String(), string(t.Type),
		nullable(t.CategoryID), core.JoinTags(t.Tags), t.Notes, core.Fold(t.Notes), t.UpdatedAt.UnixMicro(),
		t.ID, t.OwnerID,
	)
	if err != nil {
		return wrapErr("update transaction", err)
	}
	return expectOne(res, "update transaction "+t.ID)
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("delete transaction", err)
	}
	return expectOne(res, "delete transaction "+id)
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

var sortColumns = map[string]string{
	core.SortByDate:      "txn_date",
	core.SortByAmount:    "amount_cents",
	core.SortByCreatedAt: "created_at",
}

// where renders the predicate part of q. Search terms are matched against
// the folded columns.
func (r *Repository) where(q query.Query) (string, []any) {
	clauses := []string{"owner_id = ?"}
	args := []any{q.OwnerID}
	if q.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(q.Type))
	}
	if q.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, q.CategoryID)
	}
	rc, ra := rangeClause("txn_date", q.Range)
	clauses = append(clauses, rc...)
	args = append(args, ra...)
	if q.Search != "" {
		clauses = append(clauses, "("+r.db.containsExpr("description_fold")+" OR "+r.db.containsExpr("notes_fold")+")")
		args = append(args, q.Search, q.Search)
	}
	return strings.Join(clauses, " AND "), args
}

func rangeClause(column string, dr core.DateRange) ([]string, []any) {
	var clauses []string
	var args []any
	if !dr.Start.IsZero() {
		clauses = append(clauses, column+" >= ?")
		args = append(args, dr.Start.String())
	}
	if !dr.End.IsZero() {
		clauses = append(clauses, column+" <= ?")
		args = append(args, dr.End.String())
	}
	return clauses, args
}

func (r *Repository) Query(ctx context.Context, q query.Query) ([]core.Transaction, int, error) {
	where, args := r.where(q)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions WHERE `+where, args...); err != nil {
		return nil, 0, wrapErr("count transactions", err)
	}
	if total == 0 {
		return []core.Transaction{}, 0, nil
	}

	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}
	column, ok := sortColumns[q.Sort.Field]
	if !ok {
		column = sortColumns[core.SortByDate]
	}
	stmt := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`,
		transactionColumns, where, column, dir)

	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, stmt, append(args, q.Limit, q.Offset())...); err != nil {
		return nil, 0, wrapErr("query transactions", err)
	}
	txns, err := toCoreAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *Repository) ScanRange(ctx context.Context, ownerID string, dr core.DateRange) ([]core.Transaction, error) {
	clauses, args := rangeClause("txn_date", dr)
	where := strings.Join(append([]string{"owner_id = ?"}, clauses...), " AND ")

	var rows []transactionRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+where+` ORDER BY txn_date, id`,
		append([]any{ownerID}, args...)...)
	if err != nil {
		return nil, wrapErr("scan transactions", err)
	}
	return toCoreAll(rows)
}

func (r *Repository) MonthTypeTotals(ctx context.Context, ownerID string, year int) ([]core.MonthTypeTotal, error) {
	yr := core.YearRange(year)
	var rows []struct {
		Month int    `db:"month"`
		Type  string `db:"type"`
		Total int64  `db:"total"`
		Count int    `db:"cnt"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT CAST(substr(txn_date, 6, 2) AS INTEGER) AS month, type,
			CAST(SUM(amount_cents) AS BIGINT) AS total, COUNT(*) AS cnt
		FROM transactions
		WHERE owner_id = ? AND txn_date >= ? AND txn_date <= ?
		GROUP BY CAST(substr(txn_date, 6, 2) AS INTEGER), type
		ORDER BY month, type`,
		ownerID, yr.Start.String(), yr.End.String())
	if err != nil {
		return nil, wrapErr("group transactions by month", err)
	}
	out := make([]core.MonthTypeTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.MonthTypeTotal{
			Month: row.Month, Type: core.TransactionType(row.Type), Total: core.Cents(row.Total), Count: row.Count,
		})
	}
	return out, nil
}

// CategoryTypeTotals left joins categories, so uncategorized rows come back
// with an empty id.
func (r *Repository) CategoryTypeTotals(ctx context.Context, ownerID string, dr core.DateRange) ([]core.CategoryTypeTotal, error) {
	clauses, args := rangeClause("t.txn_date", dr)
	where := strings.Join(append([]string{"t.owner_id = ?"}, clauses...), " AND ")

	var rows []struct {
		CategoryID string `db:"category_id"`
		Name       string `db:"category_name"`
		Color      string `db:"category_color"`
		Type       string `db:"type"`
		Total      int64  `db:"total"`
		Count      int    `db:"cnt"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT COALESCE(c.id, '') AS category_id, COALESCE(c.name, '') AS category_name,
			COALESCE(c.color, '') AS category_color, t.type AS type,
			CAST(SUM(t.amount_cents) AS BIGINT) AS total, COUNT(*) AS cnt
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE `+where+`
		GROUP BY c.id, c.name, c.color, t.type
		ORDER BY category_id, type`,
		append([]any{ownerID}, args...)...)
	if err != nil {
		return nil, wrapErr("group transactions by category", err)
	}
	out := make([]core.CategoryTypeTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryTypeTotal{
			CategoryID: row.CategoryID, CategoryName: row.Name, CategoryColor: row.Color,
			Type: core.TransactionType(row.Type), Total: core.Cents(row.Total), Count: row.Count,
		})
	}
	return out, nil
}

func (r *Repository) DayTypeTotals(ctx context.Context, ownerID string, dr core.DateRange) ([]core.DayTypeTotal, error) {
	clauses, args := rangeClause("txn_date", dr)
	where := strings.Join(append([]string{"owner_id = ?"}, clauses...), " AND ")

	var rows []struct {
		Date  string `db:"txn_date"`
		Type  string `db:"type"`
		Total int64  `db:"total"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT txn_date, type, CAST(SUM(amount_cents) AS BIGINT) AS total
		FROM transactions
		WHERE `+where+`
		GROUP BY txn_date, type
		ORDER BY txn_date, type`,
		append([]any{ownerID}, args...)...)
	if err != nil {
		return nil, wrapErr("group transactions by day", err)
	}
	out := make([]core.DayTypeTotal, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("stored date: %w", err)
		}
		out = append(out, core.DayTypeTotal{Date: d, Type: core.TransactionType(row.Type), Total: core.Cents(row.Total)})
	}
	return out, nil
}
