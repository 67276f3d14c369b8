package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// Source supplies raw rows for a refresh cycle. The production source is
// a local CSV export of the upstream box-score dataset; fetching the
// dataset itself happens outside this service.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawRow, error)
}

// CSVSource reads a headered CSV whose column names match the raw feed
// schema (the RawRow json tags). Unknown columns are ignored, missing
// ones stay empty and fall out at the cleaner.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Fetch(ctx context.Context) ([]models.RawRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return parseCSV(ctx, f)
}

func parseCSV(ctx context.Context, r io.Reader) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	// Column index -> RawRow field index, via the json tags.
	tagToField := rawRowTagIndex()
	colToField := make([]int, len(header))
	for i, col := range header {
		idx, ok := tagToField[strings.TrimSpace(col)]
		if !ok {
			idx = -1
		}
		colToField[i] = idx
	}

	var rows []models.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A mangled line degrades to a skipped row, not a dead batch.
			continue
		}

		var row models.RawRow
		v := reflect.ValueOf(&row).Elem()
		for i, val := range record {
			if i < len(colToField) && colToField[i] >= 0 {
				v.Field(colToField[i]).SetString(val)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rawRowTagIndex() map[string]int {
	t := reflect.TypeOf(models.RawRow{})
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if tag != "" && tag != "-" {
			m[tag] = i
		}
	}
	return m
}
