package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/skills-dataset/internal/export"
	"github.com/pdiddy/skills-dataset/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export validated skill files to Parquet",
	Long: `Export joins the valid subset of the corpus with repository metadata
and commit history, writing files.parquet, repos.parquet and
history.parquet. With --kaggle-username it also writes
dataset-metadata.json and a dataset README for publishing.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("main-db", "skills.db", "source database from the file fetcher")
	exportCmd.Flags().String("output-db", "validation.db", "validation results database")
	exportCmd.Flags().String("output-dir", "kaggle_dataset", "directory for the Parquet files")
	exportCmd.Flags().String("kaggle-username", "", "generate Kaggle dataset metadata for this account")
	exportCmd.Flags().Bool("allow-no-repo", false, "export files whose repo metadata is missing")
	exportCmd.Flags().Bool("allow-no-history", false, "export files whose commit history is missing")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	mainDB, _ := cmd.Flags().GetString("main-db")
	outputDB, _ := cmd.Flags().GetString("output-db")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	kaggleUsername, _ := cmd.Flags().GetString("kaggle-username")
	allowNoRepo, _ := cmd.Flags().GetBool("allow-no-repo")
	allowNoHistory, _ := cmd.Flags().GetBool("allow-no-history")

	cfg := types.ExportConfig{
		MainDB:         mainDB,
		OutputDB:       outputDB,
		OutputDir:      outputDir,
		KaggleUsername: secretDefault("kaggle-username", kaggleUsername),
		AllowNoRepo:    allowNoRepo,
		AllowNoHistory: allowNoHistory,
	}

	return export.Run(cfg, os.Stdout)
}
