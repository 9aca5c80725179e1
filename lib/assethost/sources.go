// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assethost

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/asset/pack"
)

// OpenSources builds a store's source list: directory roots first,
// then packs, each in the order given. Earlier sources override later
// ones. The returned function closes every opened pack.
func OpenSources(roots, packs []string, logger *slog.Logger) ([]asset.Source, func(), error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		sources []asset.Source
		opened  []*pack.Source
	)
	closeAll := func() {
		for _, source := range opened {
			if err := source.Close(); err != nil {
				logger.Warn("closing pack", "pack", source.Name(), "error", err)
			}
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("asset root: %w", err)
		}
		if !info.IsDir() {
			closeAll()
			return nil, nil, fmt.Errorf("asset root %s is not a directory", root)
		}
		sources = append(sources, asset.NewFileSystemSource(root))
		logger.Debug("asset root added", "root", root)
	}

	for _, path := range packs {
		source, err := pack.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening pack: %w", err)
		}
		opened = append(opened, source)
		sources = append(sources, source)
		logger.Debug("asset pack added", "pack", path, "entries", len(source.Entries()))
	}

	if len(sources) == 0 {
		return nil, nil, errors.New("no asset sources configured")
	}
	return sources, closeAll, nil
}
