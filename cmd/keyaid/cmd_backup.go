package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sudo-psc/keyai-desktop/internal/pipeline"
)

var backupCmd = &cobra.Command{
	Use:   "backup <dest-path>",
	Short: "Checkpoint and copy the database file to dest-path",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := ctrl.BackupDatabase(pipeline.BackupOptions{DestPath: args[0]})
	if err != nil {
		return err
	}
	fmt.Printf("keyaid: backed up database to %s (run=%s)\n", args[0], res.RunID)
	return nil
}
