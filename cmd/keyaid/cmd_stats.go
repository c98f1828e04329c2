package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print event counts, database size, and dead-letter counts",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := ctrl.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("events:        %d\n", s.EventCount)
	fmt.Printf("vectors:       %d\n", s.VectorCount)
	fmt.Printf("oldest event:  %s\n", s.OldestEventTS.Format("2006-01-02 15:04:05"))
	fmt.Printf("newest event:  %s\n", s.NewestEventTS.Format("2006-01-02 15:04:05"))
	fmt.Printf("database size: %d bytes\n", s.DatabaseBytes)
	fmt.Printf("dead letters:  %d\n", s.DeadLetterCount)
	return nil
}
