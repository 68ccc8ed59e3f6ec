package dataloader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"salesdash/internal/logger"
	"salesdash/internal/models"
	"salesdash/internal/services/storage"
)

// CSVSource reads a delimited sales export through storage, so sealed
// files are decrypted transparently
type CSVSource struct {
	Path     string
	Encoding string
	store    *storage.Storage
}

// NewCSVSource reads path (relative to the store's directory) decoded
// from the given charset
func NewCSVSource(store *storage.Storage, path, encoding string) *CSVSource {
	return &CSVSource{Path: path, Encoding: encoding, store: store}
}

// Name is the file name
func (s *CSVSource) Name() string {
	return filepath.Base(s.Path)
}

// Rows returns one raw row per data line, keyed by canonical field name.
// Lines the CSV reader cannot parse are logged and skipped.
func (s *CSVSource) Rows(ctx context.Context) ([]models.RawRow, error) {
	log := logger.FromContext(ctx)

	enc, err := lookupEncoding(s.Encoding)
	if err != nil {
		return nil, err
	}
	file, err := s.store.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name(), err)
	}
	defer file.Close()

	reader := csv.NewReader(decodingReader(file, enc))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.Name(), err)
	}
	colIndex := buildColumnIndex(header)
	if missing := missingColumns(colIndex); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required columns %s", s.Name(), strings.Join(missing, ", "))
	}

	var rows []models.RawRow
	lineNum := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("file", s.Name()).Msg("skipping unreadable line")
			continue
		}

		row := make(models.RawRow, len(colIndex))
		for _, field := range models.Fields() {
			if idx, ok := colIndex[field]; ok && idx < len(record) {
				row[field] = record[idx]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
