// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/assethost"
	"github.com/bureau-foundation/assetpipe/lib/config"
	"github.com/bureau-foundation/assetpipe/lib/importers"
)

// storeOptions select the sources and pacing of an in-process store.
type storeOptions struct {
	roots      []string
	packs      []string
	configPath string
	workers    int
	settings   uint64
	timeout    time.Duration
	budget     int
}

func (o *storeOptions) register(flagSet *pflag.FlagSet) {
	flagSet.StringArrayVarP(&o.roots, "root", "r", nil, "asset directory (repeatable, earlier roots win)")
	flagSet.StringArrayVar(&o.packs, "pack", nil, "asset pack file (repeatable, searched after roots)")
	flagSet.StringVar(&o.configPath, "config", "", "read sources from this configuration file")
	flagSet.IntVar(&o.workers, "workers", 0, "concurrent imports (default: configuration, then GOMAXPROCS)")
	flagSet.Uint64Var(&o.settings, "settings", 0, "import settings hash applied to every path")
	flagSet.DurationVar(&o.timeout, "timeout", 10*time.Second, "give up on an asset after this long")
	flagSet.IntVar(&o.budget, "budget", assethost.DefaultSteps, "completions applied per pump")
}

// loadedConfig resolves the configuration named by --config or
// $ASSETPIPE_CONFIG. It returns nil when neither is set.
func loadedConfig(configPath string) (*config.Config, error) {
	switch {
	case configPath != "":
		return config.LoadFile(configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		return nil, nil
	}
}

// openStore builds a store with the default importers over the
// selected sources. Explicit --root and --pack flags replace the
// configured sources.
func (a *app) openStore(options storeOptions) (*asset.Store, func(), error) {
	if options.budget < 1 {
		return nil, nil, fmt.Errorf("--budget must be at least 1, got %d", options.budget)
	}

	roots, packs, workers := options.roots, options.packs, options.workers
	if len(roots) == 0 && len(packs) == 0 {
		cfg, err := loadedConfig(options.configPath)
		if err != nil {
			return nil, nil, err
		}
		if cfg == nil {
			return nil, nil, errors.New("no asset sources: pass --root or --pack, or name a configuration with --config or $" + config.EnvironmentVariable)
		}
		roots, packs = cfg.Assets.Roots, cfg.Assets.Packs
		if workers == 0 {
			workers = cfg.Store.Workers
		}
	}

	logger := cli.NewCommandLogger(a.logLevel)
	sources, closeSources, err := assethost.OpenSources(roots, packs, logger)
	if err != nil {
		return nil, nil, err
	}

	store := asset.NewStore(importers.NewDefaultRegistry(), asset.StoreConfig{
		Workers: workers,
		Logger:  logger,
		Sources: sources,
	})
	return store, func() {
		store.Close()
		closeSources()
	}, nil
}

// loadResult is one row of the load report.
type loadResult struct {
	Path    string   `json:"path"`
	ID      asset.ID `json:"id"`
	Status  string   `json:"status"`
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message,omitempty"`
}

// loadAll loads every path and waits for each in turn. Loads are all
// requested up front so the imports overlap.
func loadAll(store *asset.Store, paths []string, options storeOptions) []loadResult {
	for _, logicalPath := range paths {
		store.Load(asset.NewKey(logicalPath, options.settings))
	}

	pump := func() { store.Pump(asset.Steps(options.budget)) }
	results := make([]loadResult, 0, len(paths))
	for _, logicalPath := range paths {
		id, err := asset.LoadAndWait(store, asset.NewKey(logicalPath, options.settings), pump, options.timeout, nil)
		result := loadResult{Path: logicalPath, ID: id}
		state := store.State(id)
		result.Status = state.Status.String()
		switch {
		case err == nil:
		case errors.Is(err, asset.ErrTimeout):
			result.Message = err.Error()
		default:
			result.Kind = asset.KindOf(err).String()
			result.Message = state.Message
			if result.Message == "" {
				result.Message = err.Error()
			}
		}
		results = append(results, result)
	}
	return results
}
