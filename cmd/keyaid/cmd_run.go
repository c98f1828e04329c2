package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start capturing keystrokes and serve them to the store until interrupted",
	Long: `run registers the keyboard hook, starts the mask and persist stages, and
blocks until SIGINT or SIGTERM, at which point it stops the hook and drains
in-flight events before exiting.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	startCtx, cancelStart := context.WithTimeout(context.Background(), timeout)
	defer cancelStart()
	if err := ctrl.StartCapture(startCtx); err != nil {
		return err
	}
	logger.Info("keyaid running", zap.String("store", cfg.Store.Path))
	fmt.Println("keyaid: capturing. Press Ctrl-C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nkeyaid: stopping...")
	stopCtx, cancelStop := context.WithTimeout(context.Background(), timeout)
	defer cancelStop()
	return ctrl.StopCapture(stopCtx)
}
