package corpus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/internal/logging"
)

// FlaggedChant identifies a chant whose alignment needs a second look,
// either because the engine raised the review flag or because it failed
// outright.
type FlaggedChant struct {
	ChantID  int64  `json:"chant_id"`
	CantusID string `json:"cantus_id,omitempty"`
	Incipit  string `json:"incipit,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunSummary reports the outcome of a batch alignment run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Total      int            `json:"total"`
	Reviewed   int            `json:"reviewed"`
	Errors     int            `json:"errors"`
	DurationMS int64          `json:"duration_ms"`
	Flagged    []FlaggedChant `json:"flagged,omitempty"`
}

// AlignAll aligns every stored chant and records the run and its
// per-chant results. Chants that fail outright are recorded with their
// error text and do not stop the run.
func (s *Store) AlignAll(ctx context.Context, opts align.Options) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.New().String()}
	started := time.Now().UTC()

	if err := s.CreateRun(ctx, summary.RunID, started); err != nil {
		return summary, err
	}

	chants, err := s.Chants(ctx)
	if err != nil {
		return summary, err
	}

	for _, chant := range chants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Total++

		result, err := align.Align(chant.FullText, chant.Volpiano, opts)
		if err != nil {
			summary.Errors++
			summary.Flagged = append(summary.Flagged, FlaggedChant{
				ChantID:  chant.ID,
				CantusID: chant.CantusID,
				Incipit:  chant.Incipit,
				Error:    err.Error(),
			})
			if err := s.InsertResult(ctx, summary.RunID, chant.ID, false, 0, err.Error()); err != nil {
				return summary, err
			}
			continue
		}

		if result.NeedsReview {
			summary.Reviewed++
			summary.Flagged = append(summary.Flagged, FlaggedChant{
				ChantID:  chant.ID,
				CantusID: chant.CantusID,
				Incipit:  chant.Incipit,
			})
		}
		if err := s.InsertResult(ctx, summary.RunID, chant.ID, result.NeedsReview, len(result.Pairs), ""); err != nil {
			return summary, err
		}
	}

	finished := time.Now().UTC()
	if err := s.FinishRun(ctx, summary.RunID, finished, summary.Total, summary.Reviewed, summary.Errors); err != nil {
		return summary, err
	}

	summary.DurationMS = finished.Sub(started).Milliseconds()
	logging.AlignmentRun(summary.RunID, summary.Total, summary.Reviewed, finished.Sub(started), "errors", summary.Errors)
	return summary, nil
}
