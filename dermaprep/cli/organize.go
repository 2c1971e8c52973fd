package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mu-hashmi/dermaprep/dermaprep/config"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/fileops"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/organizer"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/types"

	"github.com/spf13/cobra"
)

var (
	orgSources         []string
	orgStaging         string
	orgDest            string
	orgMetadata        string
	orgIDColumn        string
	orgLabelColumn     string
	orgExt             string
	orgDryRun          bool
	orgAllowDuplicates bool
)

// organizeCmd represents the organize command
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Consolidate sources and redistribute images into class directories",
	Long: `Organize moves images into one directory per class label.

When --source directories are given, their images are first consolidated
into the staging directory. The staging directory is then redistributed
into per-class subdirectories of the destination, driven by the metadata
CSV. Staged files with no metadata record are left in place and counted
as missing; the staging directory is removed only when it ends up empty.

Example:
  dermaprep organize --source part1 --source part2 --staging all_images \
    --dest processed --metadata HAM10000_metadata.csv
  dermaprep organize --staging all_images --dest processed \
    --metadata meta.csv --dry-run`,
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)

	organizeCmd.Flags().StringSliceVar(&orgSources, "source", nil, "source directory to consolidate (repeatable; omit to organize staging only)")
	organizeCmd.Flags().StringVar(&orgStaging, "staging", "", "staging directory")
	organizeCmd.Flags().StringVar(&orgDest, "dest", "", "destination root for class directories")
	organizeCmd.Flags().StringVar(&orgMetadata, "metadata", "", "metadata CSV path")
	organizeCmd.Flags().StringVar(&orgIDColumn, "id-column", "", "metadata column holding image identifiers")
	organizeCmd.Flags().StringVar(&orgLabelColumn, "label-column", "", "metadata column holding class labels")
	organizeCmd.Flags().StringVar(&orgExt, "ext", "", "image file extension, including the dot")
	organizeCmd.Flags().BoolVar(&orgDryRun, "dry-run", false, "preview moves without touching the filesystem")
	organizeCmd.Flags().BoolVar(&orgAllowDuplicates, "allow-duplicates", false, "tolerate duplicate metadata identifiers (first record wins)")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg := config.AppConfig.Dataset

	sources := orgSources
	if len(sources) == 0 {
		sources = cfg.SourceDirs
	}
	staging := firstNonEmpty(orgStaging, cfg.StagingDir)
	dest := firstNonEmpty(orgDest, cfg.ProcessedDir)
	metadata := firstNonEmpty(orgMetadata, cfg.MetadataPath)

	if staging == "" || dest == "" || metadata == "" {
		return fmt.Errorf("staging, dest and metadata are required (flags or config file)")
	}

	consOpts := options.DefaultConsolidateOptions()
	orgOpts := options.DefaultOrganizeOptions()
	if ext := firstNonEmpty(orgExt, cfg.ImageExt); ext != "" {
		consOpts.ImageExt = ext
		orgOpts.ImageExt = ext
	}
	if col := firstNonEmpty(orgIDColumn, cfg.IDColumn); col != "" {
		orgOpts.IDColumn = col
	}
	if col := firstNonEmpty(orgLabelColumn, cfg.LabelColumn); col != "" {
		orgOpts.LabelColumn = col
	}
	consOpts.DryRun = orgDryRun
	orgOpts.DryRun = orgDryRun
	if orgAllowDuplicates {
		orgOpts.OnDuplicate = options.DuplicateLastWins
	}

	ctx := context.Background()
	org := organizer.New(fileops.NewFileOps())

	var summary *types.RunSummary
	var err error
	if len(sources) > 0 {
		summary, err = org.Run(ctx, sources, staging, dest, metadata, consOpts, orgOpts)
	} else {
		summary, err = org.Organize(ctx, staging, dest, metadata, orgOpts)
	}
	if err != nil {
		return err
	}

	if summary.DryRun {
		fmt.Fprintln(os.Stderr, "Dry run: no files were moved")
	}
	fmt.Printf("Moved %d images into %d classes under %s (%d missing)\n",
		summary.Moved, len(summary.Labels), summary.DestRoot, summary.Missing)
	if summary.StagingRemoved {
		fmt.Printf("Removed empty staging directory %s\n", summary.StagingDir)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
