package census

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/inspect"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/types"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"
)

// Report holds the per-class image counts for one processed dataset directory
type Report struct {
	ProcessedDir string             `json:"processed_dir"`
	Counts       []types.ClassCount `json:"counts"`
	Total        int                `json:"total"`
	Duration     time.Duration      `json:"duration"`
}

// Count tallies the images in each class subdirectory of processedDir.
// Class directories are scanned concurrently; files are counted, nested
// directories are not descended into.
func Count(ctx context.Context, processedDir string, opts options.CensusOptions) (*Report, error) {
	start := time.Now()

	if err := common.NewValidationUtils().ValidateDirectoryExists(processedDir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(processedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read processed directory: %w", err)
	}

	workerCount := opts.WorkerCount
	if workerCount <= 0 {
		workerCount = 4
	}

	slog.Info("Scanning processed dataset",
		"path", processedDir,
		"workers", workerCount,
		"verify_exif", opts.VerifyEXIF)

	report := &Report{ProcessedDir: processedDir}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(workerCount).WithContext(ctx)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		classDir := filepath.Join(processedDir, entry.Name())
		label := entry.Name()

		p.Go(func(ctx context.Context) error {
			count, err := countClass(ctx, classDir, label, opts)
			if err != nil {
				return err
			}

			mu.Lock()
			report.Counts = append(report.Counts, count)
			report.Total += count.Images
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	// Deterministic output order regardless of worker scheduling
	sort.Slice(report.Counts, func(i, j int) bool {
		return report.Counts[i].Label < report.Counts[j].Label
	})

	report.Duration = time.Since(start)

	slog.Info("Census completed",
		"classes", len(report.Counts),
		"total_images", report.Total,
		"duration", report.Duration)

	return report, nil
}

// countClass counts regular files in one class directory
func countClass(ctx context.Context, classDir, label string, opts options.CensusOptions) (types.ClassCount, error) {
	count := types.ClassCount{Label: label}

	entries, err := os.ReadDir(classDir)
	if err != nil {
		return count, fmt.Errorf("failed to read class directory %s: %w", classDir, err)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		if entry.IsDir() {
			continue
		}
		count.Images++

		if opts.VerifyEXIF && !inspect.HasEXIF(filepath.Join(classDir, entry.Name())) {
			count.Unreadable++
		}
	}

	return count, nil
}

// Balance summarizes how evenly images are distributed across classes
func (r *Report) Balance() types.ClassBalance {
	balance := types.ClassBalance{
		Classes:     len(r.Counts),
		TotalImages: r.Total,
	}
	if len(r.Counts) == 0 {
		return balance
	}

	sizes := make([]float64, len(r.Counts))
	smallest, largest := r.Counts[0], r.Counts[0]
	for i, c := range r.Counts {
		sizes[i] = float64(c.Images)
		if c.Images < smallest.Images {
			smallest = c
		}
		if c.Images > largest.Images {
			largest = c
		}
	}

	balance.Mean = stat.Mean(sizes, nil)
	if len(sizes) > 1 {
		balance.StdDev = stat.StdDev(sizes, nil)
	}
	balance.SmallestClass = smallest.Label
	balance.LargestClass = largest.Label
	if smallest.Images > 0 {
		balance.ImbalanceRatio = float64(largest.Images) / float64(smallest.Images)
	}

	return balance
}

// Render returns the report as a human-facing table, sorted by class name
func (r *Report) Render(verify bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Class", "Images"}
	if verify {
		header = append(header, "Unreadable")
	}
	tw.AppendHeader(header)

	for _, c := range r.Counts {
		row := table.Row{c.Label, strconv.Itoa(c.Images)}
		if verify {
			row = append(row, strconv.Itoa(c.Unreadable))
		}
		tw.AppendRow(row)
	}

	footer := table.Row{"Total", strconv.Itoa(r.Total)}
	if verify {
		unreadable := 0
		for _, c := range r.Counts {
			unreadable += c.Unreadable
		}
		footer = append(footer, strconv.Itoa(unreadable))
	}
	tw.AppendFooter(footer)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
