package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter exports a yearly report, replacing any previous export of
	// the same owner and year.
	ReportWriter interface {
		WriteYearlyReport(ctx context.Context, ownerID string, r core.YearlyReport) (ref string, err error)
	}
)
