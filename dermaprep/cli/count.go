package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mu-hashmi/dermaprep/dermaprep/config"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/census"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"

	"github.com/spf13/cobra"
)

var (
	countVerify  bool
	countJSON    bool
	countBalance bool
	countWorkers int
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count <dir>",
	Short: "Count images per class directory",
	Long: `Count walks each class subdirectory of an organized dataset and
reports how many images it holds.

With --verify every image is additionally probed for decodable EXIF
metadata, and unreadable files are reported per class. With --balance
the class distribution statistics (mean, spread, imbalance ratio) are
printed after the table.

Example:
  dermaprep count processed
  dermaprep count processed --verify --balance
  dermaprep count processed --json > census.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().BoolVar(&countVerify, "verify", false, "probe each image for decodable EXIF metadata")
	countCmd.Flags().BoolVar(&countJSON, "json", false, "emit the report as JSON instead of a table")
	countCmd.Flags().BoolVar(&countBalance, "balance", false, "print class balance statistics")
	countCmd.Flags().IntVar(&countWorkers, "workers", 0, "concurrent class workers (default from config)")
}

func runCount(cmd *cobra.Command, args []string) error {
	opts := options.DefaultCensusOptions()
	if config.AppConfig.Census.WorkerCount > 0 {
		opts.WorkerCount = config.AppConfig.Census.WorkerCount
	}
	if countWorkers > 0 {
		opts.WorkerCount = countWorkers
	}
	opts.VerifyEXIF = countVerify || config.AppConfig.Census.VerifyEXIF

	report, err := census.Count(context.Background(), args[0], opts)
	if err != nil {
		return err
	}

	if countJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(report.Render(opts.VerifyEXIF))

	if countBalance {
		b := report.Balance()
		fmt.Printf("Classes: %d  Mean: %.1f  StdDev: %.1f\n", b.Classes, b.Mean, b.StdDev)
		if b.Classes > 1 {
			fmt.Printf("Smallest: %s  Largest: %s  Imbalance ratio: %.2f\n",
				b.SmallestClass, b.LargestClass, b.ImbalanceRatio)
		}
	}

	return nil
}
