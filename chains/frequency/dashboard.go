// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"provider-dashboard/core"
	"provider-dashboard/utils"

	"github.com/ChainSafe/log15"
	"github.com/google/uuid"
	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
)

// Messages the dashboard shows for the matching errors.
const (
	MsgNotConnected = "Not connected"
	MsgNoSigner     = "No transaction signing address selected"
	MsgNotProvider  = "Not a provider"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrNoSigner       = errors.New("no transaction signing address selected")
	ErrNotProvider    = errors.New("not a provider")
	ErrNoMsa          = errors.New("signing address has no msa")
	ErrHasMsa         = errors.New("signing address already has an msa")
	ErrUnknownAccount = errors.New("not a valid signing account")
	ErrSuperseded     = errors.New("connection attempt superseded")
)

// UserMessage renders err for the dashboard.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return MsgNotConnected
	case errors.Is(err, ErrNoSigner):
		return MsgNoSigner
	case errors.Is(err, ErrNotProvider):
		return MsgNotProvider
	default:
		return err.Error()
	}
}

type Options struct {
	KeystorePath string
	TypesPath    string
	TxTimeout    time.Duration
	Insecure     bool
}

type chainInitializer func(cfg *core.ChainConfig, store *core.Store, logger log15.Logger, fail func(error)) (*Chain, error)

// Dashboard ties the store to the chain currently connected and runs the
// transactions the user asks for.
type Dashboard struct {
	store     *core.Store
	router    *core.Router
	networks  *core.Networks
	opts      Options
	log       log15.Logger
	initChain chainInitializer

	mu    sync.Mutex
	chain *Chain
	gen   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	unsub  func()
}

func NewDashboard(store *core.Store, router *core.Router, networks *core.Networks, opts Options, log log15.Logger) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		store:     store,
		router:    router,
		networks:  networks,
		opts:      opts,
		log:       log,
		initChain: InitializeChain,
		ctx:       ctx,
		cancel:    cancel,
	}
	d.unsub = store.Subscribe(func(st core.State) {
		blockHeight.Set(float64(st.BlockNumber))
	})
	return d
}

func (d *Dashboard) Networks() []core.NetworkInfo {
	return d.networks.List()
}

func (d *Dashboard) State() core.State {
	return d.store.Get()
}

func (d *Dashboard) Store() *core.Store {
	return d.store
}

func (d *Dashboard) Router() *core.Router {
	return d.router
}

// Connect switches to the named network, dropping any previous connection.
// The dial runs without holding the dashboard lock, a later Connect or
// Disconnect supersedes it.
func (d *Dashboard) Connect(name, custom string) error {
	info, err := d.networks.Lookup(name, custom)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.disconnectLocked()
	d.store.Update(func(st *core.State) {
		action := st.CurrentAction
		*st = core.State{Network: info, CurrentAction: action}
	})
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	cfg := &core.ChainConfig{
		Name:         info.Name,
		Endpoint:     info.Endpoint,
		GenesisHash:  info.GenesisHash,
		KeystorePath: d.opts.KeystorePath,
		Insecure:     d.opts.Insecure,
		TypesPath:    d.opts.TypesPath,
		TxTimeout:    d.opts.TxTimeout,
	}
	chain, err := d.initChain(cfg, d.store, d.log.New("chain", info.Name), func(err error) {
		d.connectionLost(gen, err)
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", info.Endpoint, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		chain.Stop()
		return fmt.Errorf("connect to %s: %w", info.Endpoint, ErrSuperseded)
	}

	accounts, err := d.accounts(chain)
	if err != nil {
		d.log.Warn("no signing accounts available", "err", err)
	}
	props := chain.Conn().Properties()
	d.store.Update(func(st *core.State) {
		st.Connected = true
		st.Token = props.TokenSymbol
		st.Decimals = props.TokenDecimals
		st.SS58Format = props.SS58Format
		st.ValidAccounts = accounts
	})

	if err := chain.Start(); err != nil {
		chain.Stop()
		d.store.Reset()
		return fmt.Errorf("connect to %s: %w", info.Endpoint, err)
	}
	d.chain = chain
	d.log.Info("connected", "network", info.Name, "endpoint", info.Endpoint, "token", props.TokenSymbol)
	return nil
}

func (d *Dashboard) accounts(chain *Chain) ([]core.Account, error) {
	keys, err := chain.Keys().Accounts()
	if err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.Account{Address: chain.Conn().Address(k.PublicKey), Name: k.Name})
	}
	return out, nil
}

func (d *Dashboard) connectionLost(gen int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || d.chain == nil {
		return
	}
	d.log.Error("connection lost", "endpoint", d.chain.Endpoint(), "err", err)
	d.disconnectLocked()
	d.store.SetConnected(false)
}

func (d *Dashboard) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.disconnectLocked()
	d.store.Reset()
}

func (d *Dashboard) disconnectLocked() {
	if d.chain == nil {
		return
	}
	d.chain.Stop()
	d.chain = nil
}

func (d *Dashboard) current() (*Chain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chain == nil {
		return nil, ErrNotConnected
	}
	return d.chain, nil
}

// SelectSigner sets the transaction signing address and loads its msa.
func (d *Dashboard) SelectSigner(address string) (core.MsaInfo, error) {
	if _, err := d.current(); err != nil {
		return core.MsaInfo{}, err
	}
	if address == "" {
		d.store.SetSigningAddress("")
		return core.MsaInfo{}, nil
	}
	if !d.store.Get().HasAccount(address) {
		return core.MsaInfo{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	d.store.SetSigningAddress(address)
	return d.RefreshMsaInfo()
}

func (d *Dashboard) SetAction(a core.ActionForm) {
	d.store.SetAction(a)
}

// RefreshMsaInfo rereads msa and provider info of the signing address.
func (d *Dashboard) RefreshMsaInfo() (core.MsaInfo, error) {
	chain, err := d.current()
	if err != nil {
		return core.MsaInfo{}, err
	}
	address := d.store.Get().SigningAddress
	if address == "" {
		return core.MsaInfo{}, ErrNoSigner
	}
	pub, err := utils.PublicKey(address)
	if err != nil {
		return core.MsaInfo{}, err
	}
	info, err := chain.Conn().GetMsaInfo(pub)
	if err != nil {
		return core.MsaInfo{}, err
	}
	d.store.Update(func(st *core.State) {
		if st.SigningAddress == address {
			st.Msa = info
		}
	})
	return info, nil
}

// MsaInfo returns the msa of any address without touching the store.
func (d *Dashboard) MsaInfo(address string) (core.MsaInfo, error) {
	chain, err := d.current()
	if err != nil {
		return core.MsaInfo{}, err
	}
	pub, err := utils.PublicKey(address)
	if err != nil {
		return core.MsaInfo{}, err
	}
	return chain.Conn().GetMsaInfo(pub)
}

// Capacity shows the capacity ledger of the signing address' provider.
func (d *Dashboard) Capacity() (*CapacityView, error) {
	chain, st, err := d.signerState()
	if err != nil {
		return nil, err
	}
	if !st.Msa.IsProvider {
		return nil, ErrNotProvider
	}
	return formatCapacityOf(chain, st.Msa.MsaId)
}

// ProviderCapacity shows the capacity ledger of any provider.
func (d *Dashboard) ProviderCapacity(providerId uint64) (*CapacityView, error) {
	chain, err := d.current()
	if err != nil {
		return nil, err
	}
	return formatCapacityOf(chain, providerId)
}

func formatCapacityOf(chain *Chain, msaId uint64) (*CapacityView, error) {
	c, err := chain.Conn().GetCapacity(msaId)
	if err != nil {
		return nil, err
	}
	props := chain.Conn().Properties()
	return FormatCapacity(c, props.TokenDecimals, props.TokenSymbol), nil
}

func (d *Dashboard) FinalizedBlock() (uint64, string, error) {
	chain, err := d.current()
	if err != nil {
		return 0, "", err
	}
	return chain.Conn().GetFinalizedBlock()
}

// Balance returns the formatted free balance of address.
func (d *Dashboard) Balance(address string) (string, error) {
	chain, err := d.current()
	if err != nil {
		return "", err
	}
	pub, err := utils.PublicKey(address)
	if err != nil {
		return "", err
	}
	free, err := chain.Conn().FreeBalance(pub)
	if err != nil {
		return "", err
	}
	props := chain.Conn().Properties()
	return utils.FormatBalance(free, props.TokenDecimals, props.TokenSymbol), nil
}

func (d *Dashboard) signerState() (*Chain, core.State, error) {
	chain, err := d.current()
	if err != nil {
		return nil, core.State{}, err
	}
	st := d.store.Get()
	if st.SigningAddress == "" {
		return nil, st, ErrNoSigner
	}
	return chain, st, nil
}

func keypairFor(chain *Chain, address string) (*signature.KeyringPair, error) {
	pub, err := utils.PublicKey(address)
	if err != nil {
		return nil, err
	}
	kp, err := chain.Keys().Keypair(pub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", address, err)
	}
	return kp, nil
}

func (d *Dashboard) CreateMsa() (string, error) {
	chain, st, err := d.signerState()
	if err != nil {
		return "", err
	}
	if st.Msa.MsaId != 0 {
		return "", ErrHasMsa
	}
	key, err := keypairFor(chain, st.SigningAddress)
	if err != nil {
		return "", err
	}
	return d.submit(chain, "create_msa", func(ctx context.Context, conn *Connection, cb TxnStatusCallback) error {
		return conn.SubmitCreateMsa(ctx, key, cb)
	}), nil
}

func (d *Dashboard) CreateProvider(name string) (string, error) {
	chain, st, err := d.signerState()
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrEmptyProviderName
	}
	if st.Msa.MsaId == 0 {
		return "", ErrNoMsa
	}
	key, err := keypairFor(chain, st.SigningAddress)
	if err != nil {
		return "", err
	}
	return d.submit(chain, "create_provider", func(ctx context.Context, conn *Connection, cb TxnStatusCallback) error {
		_, err := conn.SubmitCreateProvider(ctx, key, name, cb)
		return err
	}), nil
}

// AddControlKey adds newAddress as a control key of the signing address' msa.
func (d *Dashboard) AddControlKey(newAddress string) (string, error) {
	chain, st, err := d.signerState()
	if err != nil {
		return "", err
	}
	if st.Msa.MsaId == 0 {
		return "", ErrNoMsa
	}
	signingKey, err := keypairFor(chain, st.SigningAddress)
	if err != nil {
		return "", err
	}
	newKey, err := keypairFor(chain, newAddress)
	if err != nil {
		return "", err
	}
	msaId := st.Msa.MsaId
	return d.submit(chain, "add_control_key", func(ctx context.Context, conn *Connection, cb TxnStatusCallback) error {
		return conn.SubmitAddControlKey(ctx, newKey, signingKey, msaId, cb)
	}), nil
}

// Stake stakes amount token to providerId, or to the signing address' own
// provider when providerId is 0.
func (d *Dashboard) Stake(providerId uint64, amount string) (string, error) {
	chain, st, err := d.signerState()
	if err != nil {
		return "", err
	}
	if providerId == 0 {
		if !st.Msa.IsProvider {
			return "", ErrNotProvider
		}
		providerId = st.Msa.MsaId
	}
	planck, err := utils.ParseAmount(amount, st.Decimals)
	if err != nil {
		return "", err
	}
	key, err := keypairFor(chain, st.SigningAddress)
	if err != nil {
		return "", err
	}
	return d.submit(chain, "stake", func(ctx context.Context, conn *Connection, cb TxnStatusCallback) error {
		return conn.SubmitStake(ctx, key, providerId, new(big.Int).Set(planck), cb)
	}), nil
}

type submission func(ctx context.Context, conn *Connection, cb TxnStatusCallback) error

// submit runs fn in the background and routes its statuses under a new
// transaction id. A Done message always ends the stream.
func (d *Dashboard) submit(chain *Chain, call string, fn submission) string {
	id := uuid.New().String()
	d.router.Open(id)
	logger := d.log.New("tx", id, "call", call)

	outcome := "unknown"
	cb := func(reason core.Reason, status string) {
		switch reason {
		case core.TxSucceeded:
			outcome = "succeeded"
		case core.TxFailed:
			outcome = "failed"
		case core.TxInvalid:
			outcome = "invalid"
		case core.TxError:
			outcome = "error"
		}
		if err := d.router.Send(&core.Message{Source: id, Reason: reason, Content: status}); err != nil {
			logger.Warn("status not routed", "err", err)
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := fn(d.ctx, chain.Conn(), cb)
		if err != nil {
			logger.Warn("transaction did not complete", "err", err)
			if outcome != "error" {
				cb(core.TxError, fmt.Sprintf("Unexpected problem: %s", err))
			}
		}
		txTotal.WithLabelValues(call, outcome).Inc()

		if _, err := d.RefreshMsaInfo(); err != nil && !errors.Is(err, ErrNoSigner) {
			logger.Debug("msa refresh after transaction failed", "err", err)
		}
		if err := d.router.Send(&core.Message{Source: id, Reason: core.TxDone}); err != nil {
			logger.Warn("done not routed", "err", err)
		}
	}()
	return id
}

// Wait blocks until every running submission has finished.
func (d *Dashboard) Wait() {
	d.wg.Wait()
}

func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.unsub()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.disconnectLocked()
	d.store.SetConnected(false)
}
