// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"fmt"
	"sync"
	"time"

	log "github.com/ChainSafe/log15"
)

const (
	msgLimit     = 64
	historyLimit = 256
)

// Sink consumes status messages of one transaction.
type Sink interface {
	QueueMessage(msg *Message)
}

type SinkFunc func(msg *Message)

func (f SinkFunc) QueueMessage(msg *Message) { f(msg) }

type txRecord struct {
	msgs  []*Message
	done  bool
	sinks map[int]Sink
}

// Router forwards transaction status messages from the submitter to the
// registered sinks, keeping a short history per transaction.
type Router struct {
	registry map[string]*txRecord
	order    []string
	nextId   int
	lock     *sync.RWMutex
	log      log.Logger
}

func NewRouter(log log.Logger) *Router {
	return &Router{
		registry: make(map[string]*txRecord),
		lock:     &sync.RWMutex{},
		log:      log,
	}
}

// Open registers a transaction id. Messages for unknown ids are rejected.
func (r *Router) Open(txId string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.registry[txId]; ok {
		return
	}
	r.registry[txId] = &txRecord{sinks: make(map[int]Sink)}
	r.order = append(r.order, txId)
	if len(r.order) > historyLimit {
		evict := r.order[0]
		r.order = r.order[1:]
		delete(r.registry, evict)
	}
}

// Send passes a message to every sink listening on its source
func (r *Router) Send(msg *Message) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.log.Trace("Routing message", "tx", msg.Source, "reason", msg.Reason, "content", msg.Content)

	rec := r.registry[msg.Source]
	if rec == nil {
		return fmt.Errorf("unknown transaction: %s", msg.Source)
	}
	if rec.done {
		return fmt.Errorf("transaction already done: %s", msg.Source)
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	if len(rec.msgs) < msgLimit {
		rec.msgs = append(rec.msgs, msg)
	} else {
		rec.msgs[len(rec.msgs)-1] = msg
	}
	rec.done = msg.Reason.Terminal()

	for _, s := range rec.sinks {
		s.QueueMessage(msg)
	}
	if rec.done {
		rec.sinks = make(map[int]Sink)
	}
	return nil
}

// Listen registers a sink for txId. Past messages are replayed to it first. The
// returned func removes the sink.
func (r *Router) Listen(txId string, s Sink) (func(), error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec := r.registry[txId]
	if rec == nil {
		return nil, fmt.Errorf("unknown transaction: %s", txId)
	}
	r.log.Debug("Registering sink", "tx", txId)
	for _, m := range rec.msgs {
		s.QueueMessage(m)
	}
	if rec.done {
		return func() {}, nil
	}

	id := r.nextId
	r.nextId++
	rec.sinks[id] = s
	return func() {
		r.lock.Lock()
		defer r.lock.Unlock()
		delete(rec.sinks, id)
	}, nil
}

// History returns the messages seen for txId and whether it is done.
func (r *Router) History(txId string) ([]*Message, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	rec := r.registry[txId]
	if rec == nil {
		return nil, false, fmt.Errorf("unknown transaction: %s", txId)
	}
	out := make([]*Message, len(rec.msgs))
	copy(out, rec.msgs)
	return out, rec.done, nil
}
