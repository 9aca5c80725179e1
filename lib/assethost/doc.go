// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assethost drives an [asset.Store] from a frame loop.
//
// A Host ticks on a fixed interval. Each frame it pumps the store with
// a bounded budget, drains the resulting events, and logs them. A game
// or tool embeds a Host where it would otherwise call Pump by hand;
// assetd runs one as its main loop.
//
//	host, err := assethost.New(assethost.Config{Store: store, Logger: logger})
//	go host.Run(ctx)
//	<-host.Done()
//
// Tests call [Host.Step] to run single frames synchronously.
package assethost
