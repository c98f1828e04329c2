package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sudo-psc/keyai-desktop/internal/search"
)

var (
	searchLimit       int
	searchOffset      int
	searchThreshold   float64
	searchTextW       float64
	searchSemW        float64
	searchApp         string
	searchContentKind string
	searchMinScore    float64
)

var searchCmd = &cobra.Command{
	Use:   "search <mode> <query>",
	Short: "Search captured events: mode is one of text, semantic, hybrid",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (0 = config default)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "result offset (lexical mode only)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", -1, "semantic similarity floor (-1 = config default)")
	searchCmd.Flags().Float64Var(&searchTextW, "weight-text", 0, "hybrid lexical weight (0,0 = config default)")
	searchCmd.Flags().Float64Var(&searchSemW, "weight-semantic", 0, "hybrid semantic weight (0,0 = config default)")
	searchCmd.Flags().StringVar(&searchApp, "app", "", "restrict results to one application")
	searchCmd.Flags().StringVar(&searchContentKind, "content-kind", "", "restrict results to events tagged with this mask pattern, e.g. cpf, email")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this floor")
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, query := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var f search.Filters
	if searchApp != "" {
		f.AppAllow = []string{searchApp}
	}
	f.ContentKind = searchContentKind
	f.MinScore = searchMinScore

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch mode {
	case "text":
		r, err := ctrl.SearchText(query, searchLimit, searchOffset, f)
		if err != nil {
			return err
		}
		printResults(r.Results, r.SearchTimeMS)
	case "semantic":
		r, err := ctrl.SearchSemantic(ctx, query, searchLimit, searchThreshold, f)
		if err != nil {
			return err
		}
		printResults(r.Results, r.SearchTimeMS)
	case "hybrid":
		r, err := ctrl.SearchHybrid(ctx, query, searchLimit, searchTextW, searchSemW, f)
		if err != nil {
			return err
		}
		printResults(r.Results, r.SearchTimeMS)
	default:
		return fmt.Errorf("unknown search mode %q (want text, semantic, or hybrid)", mode)
	}
	return nil
}

func printResults(results []search.Result, elapsedMS int64) {
	fmt.Printf("%d results in %dms\n", len(results), elapsedMS)
	for _, r := range results {
		fmt.Printf("  [%d] score=%.4f %s (%s) %q\n", r.EventID, r.Score, r.Application, r.TS.Format("2006-01-02 15:04:05"), r.Snippet)
	}
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "List past search queries starting with prefix, most-used first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSuggest,
}

func runSuggest(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
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

	for _, s := range ctrl.GetSearchSuggestions(prefix, searchLimit) {
		fmt.Println(s)
	}
	return nil
}
