// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"fmt"
	"time"

	"provider-dashboard/core"

	"github.com/ChainSafe/log15"
)

type blockSource interface {
	GetBlockNumber() (uint64, error)
	GetEpoch() (uint64, error)
}

type listener struct {
	name      string
	conn      blockSource
	store     *core.Store
	log       log15.Logger
	stop      <-chan int
	fail      func(error)
	lastBlock uint64
}

// Frequency of polling for a new block
var (
	OneBlockTime       = 6 * time.Second
	BlockRetryInterval = time.Second * 1
	BlockRetryLimit    = 5
)

func NewListener(name string, conn blockSource, store *core.Store, log log15.Logger, stop <-chan int, fail func(error)) *listener {
	return &listener{
		name:  name,
		conn:  conn,
		store: store,
		log:   log,
		stop:  stop,
		fail:  fail,
	}
}

// start reads the current block once so a dead endpoint fails fast, then polls.
func (l *listener) start() error {
	if err := l.poll(); err != nil {
		return err
	}

	go func() {
		err := l.pollBlocks()
		if err != nil && err != ErrorTerminated {
			l.log.Error("Polling blocks failed", "err", err)
			if l.fail != nil {
				l.fail(err)
			}
		}
	}()

	return nil
}

// pollBlocks updates the block and epoch number whenever a new block shows up.
// Failed attempts are retried up to BlockRetryLimit times in a row.
func (l *listener) pollBlocks() error {
	var retry = BlockRetryLimit
	ticker := time.NewTicker(OneBlockTime)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return ErrorTerminated
		case <-ticker.C:
			if retry == 0 {
				return fmt.Errorf("block polling retries exceeded: %s", l.name)
			}

			err := l.poll()
			if err != nil {
				l.log.Error("Failed to fetch latest block", "err", err)
				retry--
				time.Sleep(BlockRetryInterval)
				continue
			}
			retry = BlockRetryLimit
		}
	}
}

func (l *listener) poll() error {
	blk, err := l.conn.GetBlockNumber()
	if err != nil {
		return err
	}
	if blk == l.lastBlock && blk != 0 {
		return nil
	}

	epoch, err := l.conn.GetEpoch()
	if err != nil {
		return err
	}
	if blk%100 == 0 {
		l.log.Debug("new block", "block", blk, "epoch", epoch)
	}
	l.lastBlock = blk
	l.store.SetBlock(blk, epoch)
	return nil
}
