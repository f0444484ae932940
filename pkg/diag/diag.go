// Package diag is the narrow issue-reporting surface the collision engine
// exposes to its diagnostics collaborator. The engine recovers from every
// reportable condition locally; reporting exists so the host can count,
// log, or alarm on them. Retry and degradation policy live outside.
package diag

import (
	"context"

	"github.com/opd-ai/go-collider/pkg/logging"
)

// Kind classifies a recoverable issue
type Kind string

const (
	// InvalidShape marks a degenerate shape skipped for this tick
	InvalidShape Kind = "invalid_shape"
	// StaleReference marks an inactive object found inside a structure
	StaleReference Kind = "stale_reference"
	// StructureInconsistency marks a tracked cell set diverging from an
	// object's actual bounds; healed by remove and reinsert
	StructureInconsistency Kind = "structure_inconsistency"
	// OptimizationFailure marks a failed rebalancing pass
	OptimizationFailure Kind = "optimization_failure"
)

// Reporter receives non-fatal issue notifications
type Reporter interface {
	ReportIssue(kind Kind, context map[string]any)
}

// NopReporter discards all issues
type NopReporter struct{}

// ReportIssue implements Reporter
func (NopReporter) ReportIssue(Kind, map[string]any) {}

// LogReporter forwards issues to a structured logger at warn level
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a Reporter backed by the given logger
func NewLogReporter(logger *logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// ReportIssue implements Reporter
func (r *LogReporter) ReportIssue(kind Kind, issueContext map[string]any) {
	args := make([]any, 0, 2+2*len(issueContext))
	args = append(args, "kind", string(kind))
	for k, v := range issueContext {
		args = append(args, k, v)
	}
	r.logger.Warn(context.Background(), "collision engine issue", args...)
}

// Recorder keeps reported issues in memory; useful for tests and for hosts
// that poll instead of log.
type Recorder struct {
	Issues []RecordedIssue
}

// RecordedIssue is one captured report
type RecordedIssue struct {
	Kind    Kind
	Context map[string]any
}

// ReportIssue implements Reporter
func (r *Recorder) ReportIssue(kind Kind, issueContext map[string]any) {
	r.Issues = append(r.Issues, RecordedIssue{Kind: kind, Context: issueContext})
}

// CountByKind returns how many issues of the given kind were recorded
func (r *Recorder) CountByKind(kind Kind) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			count++
		}
	}
	return count
}
