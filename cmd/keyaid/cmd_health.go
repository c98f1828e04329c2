package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sudo-psc/keyai-desktop/internal/pipeline"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report store, capture, and vector-index health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	h := ctrl.GetHealth()
	fmt.Printf("overall: %s\n", h.State)
	for _, chk := range h.Checks {
		status := "ok"
		if !chk.OK {
			status = "FAIL"
		}
		fmt.Printf("  %-14s %-4s %s\n", chk.Name, status, chk.Detail)
	}

	if h.State == pipeline.HealthUnhealthy {
		return &pipeline.Error{Code: pipeline.CodeStoreCorrupt, Err: errors.New("health check reports unhealthy")}
	}
	return nil
}
