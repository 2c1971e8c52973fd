package cli

import (
	"fmt"
	"log/slog"
	"os"

	internal "github.com/mu-hashmi/dermaprep/dermaprep"
	"github.com/mu-hashmi/dermaprep/dermaprep/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dermaprep",
	Short: "Dermaprep - dataset preparation for image classification",
	Long: `Dermaprep prepares raw image drops for classifier training.

It consolidates scattered source directories into a staging area,
redistributes staged images into per-class directories driven by a CSV
metadata table, audits the per-class balance of the result, and builds
deterministic train/test manifests.

Files are moved, never copied; the source of truth stays on disk.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dermaprep v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, then $HOME/.config/dermaprep/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in the config file and environment variables, and
// tunes log verbosity for the run
func initConfig() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if _, err := config.LoadConfig(cfgFile); err != nil {
		logger := internal.GetLogger()
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
