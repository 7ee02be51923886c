package core

import (
	"sort"
	"sync"
)

type MsaInfo struct {
	MsaId        uint64 `json:"msaId"`
	IsProvider   bool   `json:"isProvider"`
	ProviderName string `json:"providerName"`
}

type Account struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// State is what the dashboard shows. It is copied out of the Store, never shared.
type State struct {
	Connected      bool        `json:"connected"`
	Network        NetworkInfo `json:"network"`
	BlockNumber    uint64      `json:"blockNumber"`
	EpochNumber    uint64      `json:"epochNumber"`
	Token          string      `json:"token"`
	Decimals       uint32      `json:"decimals"`
	SS58Format     uint16      `json:"ss58Format"`
	ValidAccounts  []Account   `json:"validAccounts"`
	SigningAddress string      `json:"signingAddress"`
	Msa            MsaInfo     `json:"msa"`
	CurrentAction  ActionForm  `json:"currentAction"`
}

func (s State) clone() State {
	if s.ValidAccounts != nil {
		accounts := make([]Account, len(s.ValidAccounts))
		copy(accounts, s.ValidAccounts)
		s.ValidAccounts = accounts
	}
	return s
}

// HasAccount reports whether address is one of the valid signing accounts.
func (s State) HasAccount(address string) bool {
	for _, a := range s.ValidAccounts {
		if a.Address == address {
			return true
		}
	}
	return false
}

// Store holds the dashboard state and notifies subscribers on every change.
// Subscribers see updates in the order they were applied and must not update
// the store from inside the callback.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextId int

	// notify is held from snapshot to the last delivery, so one update is
	// fully delivered before the next snapshot is taken.
	notify sync.Mutex
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe calls fn with the current state and again after each update until
// the returned func is called.
func (s *Store) Subscribe(fn func(State)) func() {
	s.notify.Lock()
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.subs[id] = fn
	current := s.state.clone()
	s.mu.Unlock()

	fn(current)
	s.notify.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Update applies fn to the state and notifies subscribers in subscription order.
func (s *Store) Update(fn func(*State)) {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	fn(&s.state)
	current := s.state.clone()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(State), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(current.clone())
	}
}

func (s *Store) SetConnected(connected bool) {
	s.Update(func(st *State) { st.Connected = connected })
}

func (s *Store) SetBlock(blockNumber, epochNumber uint64) {
	s.Update(func(st *State) {
		st.BlockNumber = blockNumber
		st.EpochNumber = epochNumber
	})
}

func (s *Store) SetSigningAddress(address string) {
	s.Update(func(st *State) {
		if st.SigningAddress != address {
			st.Msa = MsaInfo{}
		}
		st.SigningAddress = address
	})
}

func (s *Store) SetMsaInfo(info MsaInfo) {
	s.Update(func(st *State) { st.Msa = info })
}

func (s *Store) SetAction(a ActionForm) {
	s.Update(func(st *State) { st.CurrentAction = a })
}

// Reset drops everything learned from a connection, keeping the selected network.
func (s *Store) Reset() {
	s.Update(func(st *State) {
		network := st.Network
		*st = State{Network: network}
	})
}
