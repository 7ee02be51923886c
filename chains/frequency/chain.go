// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"errors"
	"sync"

	"provider-dashboard/core"
	"provider-dashboard/shared/substrate"

	"github.com/ChainSafe/log15"
)

var ErrorTerminated = errors.New("terminated")

var _ core.Chain = &Chain{}

type Chain struct {
	cfg      *core.ChainConfig // The config of the chain
	conn     *Connection
	keys     substrate.KeySource
	listener *listener // The listener of this chain
	stop     chan int
	stopOnce sync.Once
}

// KeySourceFor picks the development keyring for local nodes and the keystore otherwise.
// Neither touches the disk or the signer here, a missing keystore only surfaces
// when accounts are listed.
func KeySourceFor(cfg *core.ChainConfig) substrate.KeySource {
	if cfg.Insecure || core.IsLocalhost(cfg.Endpoint) {
		return substrate.NewDevKeyring()
	}
	return substrate.NewKeystore(cfg.KeystorePath, false)
}

func InitializeChain(cfg *core.ChainConfig, store *core.Store, logger log15.Logger, fail func(error)) (*Chain, error) {
	logger.Info("InitializeChain", "name", cfg.Name, "endpoint", cfg.Endpoint)

	keys := KeySourceFor(cfg)

	conn, err := NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	stop := make(chan int)
	l := NewListener(cfg.Name, conn, store, logger, stop, fail)
	return &Chain{cfg: cfg, conn: conn, keys: keys, listener: l, stop: stop}, nil
}

func (c *Chain) Start() error {
	return c.listener.start()
}

func (c *Chain) Name() string {
	return c.cfg.Name
}

func (c *Chain) Endpoint() string {
	return c.cfg.Endpoint
}

func (c *Chain) Conn() *Connection {
	return c.conn
}

func (c *Chain) Keys() substrate.KeySource {
	return c.keys
}

func (c *Chain) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.conn.Close()
	})
}
