// Package dataloader reads raw sales rows from a CSV file or a SQLite table
// and normalizes them into an immutable record set.
package dataloader

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salesdash/internal/logger"
	"salesdash/internal/models"
	"salesdash/internal/services/normalizer"
)

// RowSource yields raw rows keyed by canonical field name
type RowSource interface {
	Name() string
	Rows(ctx context.Context) ([]models.RawRow, error)
}

// maxLoggedIssues caps the rejected rows echoed at debug level
const maxLoggedIssues = 10

// DataLoader turns a row source into record sets
type DataLoader struct {
	source RowSource
	log    zerolog.Logger
}

// New creates a DataLoader reading from source
func New(source RowSource, log zerolog.Logger) *DataLoader {
	return &DataLoader{source: source, log: log.With().Str("source", source.Name()).Logger()}
}

// LoadData reads every row, normalizes it and returns a new snapshot.
// Rejected rows are counted on the snapshot, never fatal.
func (dl *DataLoader) LoadData(ctx context.Context) (*models.RecordSet, error) {
	rows, err := dl.source.Rows(logger.WithContext(ctx, dl.log))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dl.source.Name(), err)
	}

	res := normalizer.Normalize(rows)
	set := models.NewRecordSet(uuid.NewString(), dl.source.Name(), res.Records)
	set.Rejected = res.Rejected
	set.RejectedByKind = res.ByKind

	ev := dl.log.Info()
	if res.Rejected > 0 {
		ev = dl.log.Warn()
	}
	ev.Str("snapshot", set.ID).
		Int("rows", len(rows)).
		Int("records", set.Len()).
		Int("rejected", res.Rejected).
		Interface("rejected_by_kind", res.ByKind).
		Msg("dataset loaded")

	for i, issue := range res.Issues {
		if i == maxLoggedIssues {
			dl.log.Debug().Int("more", len(res.Issues)-i).Msg("further rejected rows not shown")
			break
		}
		dl.log.Debug().Err(issue.Err).
			Int("row", issue.Row).
			Str("field", issue.Field).
			Str("value", issue.Value).
			Msg("row rejected")
	}

	return set, nil
}
