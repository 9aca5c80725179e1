// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration shared by assetd and
// assetctl.
//
// The file is named by the ASSETPIPE_CONFIG environment variable
// ([Load]) or a --config flag ([LoadFile]). There is no search path
// and no per-field environment override: the file is the whole truth.
//
// A file may carry development, staging, and production sections that
// override base values when [Config].Environment matches. Production
// without an explicit section switches logging to JSON at info level.
//
// Path fields (asset roots, packs, the socket) expand ${HOME},
// ${CONFIG_DIR}, and ${VAR:-default}. Relative roots and packs are
// resolved against the directory holding the config file.
//
// This package depends on no other assetpipe packages.
package config
