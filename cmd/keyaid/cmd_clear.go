package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearConfirm bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all captured events and vectors (dead-letter files are kept)",
	Long:  `clear is destructive and irreversible; it requires --confirm.`,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirm, "confirm", false, "required: acknowledge this permanently deletes all data")
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := ctrl.ClearData(clearConfirm); err != nil {
		return err
	}
	fmt.Println("keyaid: all data cleared")
	return nil
}
