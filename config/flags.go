// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "json configuration file",
	}

	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Supports levels crit (silent) to trce (trace)",
		Value: log.LvlInfo.String(),
	}

	KeystorePathFlag = &cli.StringFlag{
		Name:  "keystore",
		Usage: "Path to keystore directory",
		Value: DefaultKeystorePath,
	}

	NetworkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "network to connect to [MAINNET TESTNET LOCALHOST CUSTOM]",
	}

	EndpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "websocket endpoint, required with --network CUSTOM",
	}

	ListenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "address the dashboard http server listens on",
		Value: DefaultListenAddr,
	}

	InsecureFlag = &cli.BoolFlag{
		Name:  "insecure",
		Usage: "sign with the development accounts on any endpoint",
	}

	SS58FormatFlag = &cli.StringFlag{
		Name:  "ss58",
		Usage: "specify network for subkey like [substrate polkadot kusama ...]",
		Value: "substrate",
	}

	AddressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "ss58 address of the signing or inspected account",
	}

	ProviderIdFlag = &cli.Uint64Flag{
		Name:  "provider",
		Usage: "msa id of the provider",
	}

	NameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "provider name",
	}

	NewKeyFlag = &cli.StringFlag{
		Name:  "newkey",
		Usage: "ss58 address of the key added to the msa",
	}

	AmountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "amount of token to stake, e.g. 1.5",
	}
)
