package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sudo-psc/keyai-desktop/internal/capture"
	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/embedding"
	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/mask"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
	"github.com/Sudo-psc/keyai-desktop/internal/pipeline"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

// exitCodeFor adapts pipeline.ExitCodeFor for errors that may not be a
// *pipeline.Error at all (cobra's own arg-parsing errors, for instance),
// which that function already treats as exit code 5.
func exitCodeFor(err error) int {
	return pipeline.ExitCodeFor(err)
}

// loadConfig reads --config, or <user-config-dir>/keyai-desktop/config.yaml
// when the flag is empty; a missing file falls back to the defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "keyai-desktop", "config.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &pipeline.Error{Code: pipeline.CodeConfigInvalid, Err: err}
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

func buildEmbedder(cfg *config.Config) embedding.Engine {
	eng, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Store.EmbeddingProvider,
		OllamaEndpoint: cfg.Store.OllamaEndpoint,
		OllamaModel:    cfg.Store.OllamaModel,
		GenAIAPIKey:    cfg.Store.GenAIAPIKey,
		GenAIModel:     cfg.Store.GenAIModel,
	})
	if err != nil {
		logging.Boot("embedding engine unavailable, semantic search disabled: %v", err)
		return nil
	}
	return eng
}

func openStoreFor(cfg *config.Config, embedder embedding.Engine, m *metrics.Pipeline) (*store.Store, error) {
	dims := 0
	if embedder != nil {
		dims = embedder.Dimensions()
	}
	st, err := store.Open(store.Options{
		Path:          cfg.Store.Path,
		EncryptionKey: cfg.Store.DatabaseKey,
		EmbeddingDims: dims,
		Metrics:       m,
	})
	if err != nil {
		return nil, &pipeline.Error{Code: pipeline.CodeStoreCorrupt, Err: err}
	}
	return st, nil
}

// buildController wires a full Controller. For one-shot commands (search,
// stats, export, ...) the capture stage is constructed but never started;
// only "keyaid run" calls StartCapture.
func buildController(cfg *config.Config) (*pipeline.Controller, *store.Store, error) {
	m := metrics.New()
	if err := logging.Initialize(dataDirFor(cfg), cfg.Logging); err != nil {
		fmt.Printf("warning: failed to initialize file logging: %v\n", err)
	}

	embedder := buildEmbedder(cfg)
	st, err := openStoreFor(cfg, embedder, m)
	if err != nil {
		return nil, nil, err
	}

	cfgStore := config.NewStore(cfg)
	maskEng := mask.NewEngineWithMetrics(m)
	captureStage := capture.NewStage(capture.NewHookSource(), cfgStore, m)

	ctrl := pipeline.New(cfgStore, m, captureStage, maskEng, st, embedder)
	return ctrl, st, nil
}

func dataDirFor(cfg *config.Config) string {
	return filepath.Dir(cfg.Store.Path)
}
