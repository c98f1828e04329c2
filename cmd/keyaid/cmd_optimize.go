package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Consolidate the full-text index and checkpoint the WAL",
	RunE:  runOptimize,
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := ctrl.OptimizeSearchIndex(); err != nil {
		return err
	}
	fmt.Println("keyaid: optimize complete")
	return nil
}
