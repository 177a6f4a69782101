package pipeline

import (
	"context"
	"fmt"
)

// ReportGenerator is the report-generation contract's seam. Report file
// templating (PDF/PPTX rendering) is an external collaborator per
// spec.md §1; this package only defines the handoff so server code can
// plug in a real generator.
type ReportGenerator interface {
	Generate(ctx context.Context, req ReportRequest) (ReportResponse, error)
}

// UnconfiguredReportGenerator is the default ReportGenerator: it always
// fails with a PermanentExternal-flavored message, making the missing
// external dependency explicit rather than silently producing empty
// paths.
type UnconfiguredReportGenerator struct{}

func (UnconfiguredReportGenerator) Generate(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	return ReportResponse{}, fmt.Errorf("no report generator configured for formats %v", req.Formats)
}
