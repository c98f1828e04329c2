package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sudo-psc/keyai-desktop/internal/pipeline"
)

var (
	exportFrom              string
	exportTo                string
	exportOut               string
	exportIncludeEmbeddings bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write captured events in a time range to a JSON file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "RFC3339 lower bound, inclusive (default: unbounded)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "RFC3339 upper bound, inclusive (default: unbounded)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "destination JSON file (required)")
	exportCmd.Flags().BoolVar(&exportIncludeEmbeddings, "include-embeddings", false, "also write each event's stored embedding and model tag")
	exportCmd.MarkFlagRequired("out")
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func runExport(cmd *cobra.Command, args []string) error {
	from, err := parseOptionalTime(exportFrom)
	if err != nil {
		return &pipeline.Error{Code: pipeline.CodeInvalidQuery, Err: fmt.Errorf("--from: %w", err)}
	}
	to, err := parseOptionalTime(exportTo)
	if err != nil {
		return &pipeline.Error{Code: pipeline.CodeInvalidQuery, Err: fmt.Errorf("--to: %w", err)}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := ctrl.ExportData(pipeline.ExportOptions{From: from, To: to, DestPath: exportOut, IncludeEmbeddings: exportIncludeEmbeddings})
	if err != nil {
		return err
	}
	fmt.Printf("keyaid: exported %d events to %s (run=%s)\n", res.Count, exportOut, res.RunID)
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Restore events from a JSON file written by export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := ctrl.ImportData(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("keyaid: imported %d events from %s\n", n, args[0])
	return nil
}
