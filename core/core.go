// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/ChainSafe/log15"
)

// Stopper is anything Core shuts down on exit.
type Stopper interface {
	Stop()
}

type Core struct {
	Store    *Store
	Router   *Router
	stoppers []Stopper
	lock     sync.Mutex
	log      log.Logger
	sysErr   <-chan error
}

func NewCore(sysErr <-chan error) *Core {
	logger := log.Root().New("system", "core")
	return &Core{
		Store:  NewStore(),
		Router: NewRouter(logger),
		log:    logger,
		sysErr: sysErr,
	}
}

func (c *Core) AddStopper(s Stopper) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.stoppers = append(c.stoppers, s)
}

// Start blocks until a signal or a fatal error arrives, then stops everything
// registered in reverse order.
func (c *Core) Start() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-c.sysErr:
		c.log.Error("FATAL ERROR. Shutting down.", "err", err)
	case <-sigc:
		c.log.Warn("Interrupt received, shutting down now.")
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for i := len(c.stoppers) - 1; i >= 0; i-- {
		c.stoppers[i].Stop()
	}
}
