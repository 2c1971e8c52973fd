package cli

import (
	"context"
	"fmt"

	"github.com/mu-hashmi/dermaprep/dermaprep/config"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/split"

	"github.com/spf13/cobra"
)

var (
	splitOut   string
	splitRatio float64
	splitSeed  int64
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <dir>",
	Short: "Build deterministic train/test manifests",
	Long: `Split scans an organized dataset (one subdirectory per class) and
partitions its images into train and test sets with a seeded shuffle.
The same directory, ratio and seed always produce the same split.

Manifests are written as train.csv and test.csv (path,label rows) into
the output directory. No image files are moved or copied.

Example:
  dermaprep split processed --out manifests
  dermaprep split processed --train-ratio 0.8 --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&splitOut, "out", "", "output directory for manifests (default from config, else the dataset dir)")
	splitCmd.Flags().Float64Var(&splitRatio, "train-ratio", 0, "fraction of images assigned to the training set")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", 0, "shuffle seed")
}

func runSplit(cmd *cobra.Command, args []string) error {
	processedDir := args[0]
	cfg := config.AppConfig.Split

	opts := options.DefaultSplitOptions()
	if cfg.TrainRatio > 0 {
		opts.TrainRatio = cfg.TrainRatio
	}
	if splitRatio > 0 {
		opts.TrainRatio = splitRatio
	}
	if cfg.Seed != 0 {
		opts.Seed = cfg.Seed
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = splitSeed
	}

	manifest, err := split.Build(context.Background(), processedDir, opts)
	if err != nil {
		return err
	}

	out := firstNonEmpty(splitOut, cfg.OutputDir, processedDir)
	if err := manifest.WriteCSV(out); err != nil {
		return err
	}

	trainDist := split.Distribution(manifest.Train)
	testDist := split.Distribution(manifest.Test)
	fmt.Printf("Split %d images into %d train / %d test (seed %d)\n",
		len(manifest.Train)+len(manifest.Test), len(manifest.Train), len(manifest.Test), opts.Seed)
	for _, label := range manifest.Classes {
		fmt.Printf("  %s: %d train, %d test\n", label, trainDist[label], testDist[label])
	}
	fmt.Printf("Manifests written to %s\n", out)

	return nil
}
