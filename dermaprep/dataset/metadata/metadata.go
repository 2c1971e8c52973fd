package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
)

// Columns names the required fields of the metadata table. Column names are
// configuration, not constants; HAM10000 uses image_id/dx but other tables
// differ.
type Columns struct {
	ID    string
	Label string
}

// Record is one row of the metadata table
type Record struct {
	ImageID string
	Label   string
}

// Table is an immutable snapshot of the metadata table, preserved in file
// order for the duration of one run
type Table struct {
	path    string
	cols    Columns
	records []Record
}

// Load reads the metadata table at path and validates its schema.
// A missing file yields a *common.MissingInputError; absent required
// columns yield a *common.SchemaError. Both are raised before any file
// moves occur.
func Load(path string, cols Columns) (*Table, error) {
	if cols.ID == "" || cols.Label == "" {
		return nil, fmt.Errorf("identifier and label column names must be specified")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &common.MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("failed to open metadata table %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated per row below

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &common.SchemaError{Path: path, Missing: []string{cols.ID, cols.Label}}
		}
		return nil, fmt.Errorf("failed to read metadata header: %w", err)
	}

	idIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case cols.ID:
			idIdx = i
		case cols.Label:
			labelIdx = i
		}
	}

	var missing []string
	if idIdx == -1 {
		missing = append(missing, cols.ID)
	}
	if labelIdx == -1 {
		missing = append(missing, cols.Label)
	}
	if len(missing) > 0 {
		return nil, &common.SchemaError{Path: path, Missing: missing}
	}

	table := &Table{path: path, cols: cols}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata row %d: %w", line, err)
		}

		if idIdx >= len(row) || labelIdx >= len(row) {
			slog.Warn("Skipping short metadata row",
				"path", path,
				"line", line,
				"fields", len(row))
			continue
		}

		record := Record{
			ImageID: strings.TrimSpace(row[idIdx]),
			Label:   strings.TrimSpace(row[labelIdx]),
		}
		if record.ImageID == "" {
			slog.Warn("Skipping metadata row with empty identifier",
				"path", path,
				"line", line)
			continue
		}

		table.records = append(table.records, record)
	}

	slog.Info("Metadata table loaded",
		"path", path,
		"records", len(table.records),
		"id_column", cols.ID,
		"label_column", cols.Label)

	return table, nil
}

// Path returns the file the table was loaded from
func (t *Table) Path() string {
	return t.path
}

// Len returns the number of records in the table
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the table rows in file order. Callers must not mutate
// the returned slice.
func (t *Table) Records() []Record {
	return t.records
}

// Labels returns the distinct class labels in first-seen order
func (t *Table) Labels() []string {
	seen := make(map[string]bool, 8)
	var labels []string
	for _, r := range t.records {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}
	return labels
}

// Duplicates returns identifiers appearing more than once, in first-seen
// order. The organizer uses this to enforce its duplicate policy before
// moving anything.
func (t *Table) Duplicates() []string {
	counts := make(map[string]int, len(t.records))
	for _, r := range t.records {
		counts[r.ImageID]++
	}

	seen := make(map[string]bool)
	var dups []string
	for _, r := range t.records {
		if counts[r.ImageID] > 1 && !seen[r.ImageID] {
			seen[r.ImageID] = true
			dups = append(dups, r.ImageID)
		}
	}
	return dups
}
