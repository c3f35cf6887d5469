// Package extract reads a raw CSV source into a typed Dataset.
package extract

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/quarrydata/sift/blobstore"
	"github.com/quarrydata/sift/dataset"
)

// ErrSourceNotFound aliases the blobstore sentinel so callers working at
// the extract layer can test for missing sources directly.
var ErrSourceNotFound = blobstore.ErrSourceNotFound

var extractedRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sift",
	Subsystem: "extract",
	Name:      "rows_extracted",
	Help:      "Number of rows read from raw sources",
}, []string{"source"})

// Options controls how raw cells become typed values.
type Options struct {
	// Types declares the logical type per column name. Columns absent from
	// the map are text.
	Types map[string]dataset.Type
}

// Extract reads the CSV object at path into a Dataset. The first record is
// the header. Cells parse per their column's declared type; an empty cell
// is null, and a cell that fails to parse keeps its raw text for the data
// type check to report. Missing sources carry ErrSourceNotFound.
func Extract(
	ctx context.Context,
	logger zerolog.Logger,
	store blobstore.Store,
	path string,
	opts Options,
) (*dataset.Dataset, error) {
	r, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	ds, err := decode(logger, r, path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "extracting %q", path)
	}
	return ds, nil
}

func decode(
	logger zerolog.Logger, in io.Reader, source string, opts Options,
) (*dataset.Dataset, error) {
	cr := csv.NewReader(in)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("source has no header row")
		}
		return nil, err
	}
	cols := make([]dataset.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Newf("header column %d has no name", i+1)
		}
		typ := dataset.TypeText
		if declared, ok := opts.Types[name]; ok {
			typ = declared
		}
		cols[i] = dataset.Column{Name: name, Type: typ}
	}

	m := extractedRows.WithLabelValues(source)
	numRows := 0
	for {
		record, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		numRows++
		m.Inc()
		if numRows%100000 == 0 {
			logger.Info().Int("num_rows", numRows).Msgf("extract progress")
		}
		for i, cell := range record {
			cols[i].Values = append(cols[i].Values, parseCell(cell, cols[i].Type))
		}
	}
	logger.Debug().
		Int("num_rows", numRows).
		Int("num_columns", len(cols)).
		Msgf("extract complete")
	return dataset.New(cols...)
}

func parseCell(cell string, typ dataset.Type) dataset.Value {
	if cell == "" {
		return dataset.Null()
	}
	v, err := dataset.ParseAs(cell, typ)
	if err != nil {
		return dataset.NewText(cell)
	}
	return v
}
