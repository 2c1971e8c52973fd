package split

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/types"

	"github.com/google/uuid"
)

var defaultExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// Manifest is a deterministic train/test partition of a class-partitioned
// dataset directory. It references files; it never moves or copies them.
type Manifest struct {
	RunID      uuid.UUID            `json:"run_id"`
	Root       string               `json:"root"`
	TrainRatio float64              `json:"train_ratio"`
	Seed       int64                `json:"seed"`
	Classes    []string             `json:"classes"`
	Train      []types.ManifestItem `json:"train"`
	Test       []types.ManifestItem `json:"test"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Build scans a processed dataset directory (one subdirectory per class)
// and partitions its images into train and test sets using a seeded
// shuffle. The same directory, ratio and seed always yield the same split.
func Build(ctx context.Context, processedDir string, opts options.SplitOptions) (*Manifest, error) {
	if opts.TrainRatio <= 0 || opts.TrainRatio >= 1 {
		return nil, fmt.Errorf("train ratio must be in (0, 1), got %v", opts.TrainRatio)
	}

	if err := common.NewValidationUtils().ValidateDirectoryExists(processedDir); err != nil {
		return nil, err
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}

	manifest := &Manifest{
		RunID:      uuid.New(),
		Root:       processedDir,
		TrainRatio: opts.TrainRatio,
		Seed:       opts.Seed,
		CreatedAt:  time.Now(),
	}

	items, classes, err := scanClasses(ctx, processedDir, extensions)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrDatasetEmpty, processedDir)
	}
	manifest.Classes = classes

	// Deterministic shuffle over the lexicographically ordered item list
	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	trainSize := int(float64(len(items)) * opts.TrainRatio)
	manifest.Train = items[:trainSize]
	manifest.Test = items[trainSize:]

	slog.Info("Split manifest built",
		"run_id", manifest.RunID,
		"classes", len(classes),
		"train", len(manifest.Train),
		"test", len(manifest.Test),
		"seed", opts.Seed)

	return manifest, nil
}

// scanClasses collects labeled items from class subdirectories in
// lexicographic order so the subsequent seeded shuffle is reproducible
func scanClasses(ctx context.Context, root string, extensions []string) ([]types.ManifestItem, []string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var items []types.ManifestItem
	var classes []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		label := entry.Name()
		classDir := filepath.Join(root, label)

		files, err := os.ReadDir(classDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read class directory %s: %w", classDir, err)
		}

		found := false
		for _, file := range files {
			if file.IsDir() || !matchesExtension(file.Name(), extensions) {
				continue
			}
			items = append(items, types.ManifestItem{
				Path:  filepath.Join(classDir, file.Name()),
				Label: label,
			})
			found = true
		}

		if found {
			classes = append(classes, label)
		}
	}

	return items, classes, nil
}

func matchesExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Distribution returns the per-class item counts of one side of the split
func Distribution(items []types.ManifestItem) map[string]int {
	dist := make(map[string]int)
	for _, item := range items {
		dist[item.Label]++
	}
	return dist
}

// WriteCSV writes train.csv and test.csv manifests into dir, creating it
// if needed. Each file carries a path,label header row.
func (m *Manifest) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := writeManifestFile(filepath.Join(dir, "train.csv"), m.Train); err != nil {
		return err
	}
	if err := writeManifestFile(filepath.Join(dir, "test.csv"), m.Test); err != nil {
		return err
	}

	slog.Info("Manifests written", "dir", dir, "train", len(m.Train), "test", len(m.Test))
	return nil
}

func writeManifestFile(path string, items []types.ManifestItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"path", "label"}); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, item := range items {
		if err := w.Write([]string{item.Path, item.Label}); err != nil {
			return fmt.Errorf("failed to write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest %s: %w", path, err)
	}
	return nil
}
