// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

import "time"

type Chain interface {
	Start() error // Start chain
	Name() string
	Endpoint() string
	Stop()
}

type ChainConfig struct {
	Name         string        // Human-readable network name
	Endpoint     string        // url for rpc endpoint
	GenesisHash  string        // expected genesis hash, empty if unknown
	KeystorePath string        // Location of key files
	Insecure     bool          // Indicates whether the test keyring should be used
	TypesPath    string        // custom scale type registry, optional
	TxTimeout    time.Duration // upper bound on waiting for a submitted extrinsic
}
