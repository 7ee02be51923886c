package main

import (
	"errors"
	"fmt"
	"strings"

	"provider-dashboard/chains/frequency"
	"provider-dashboard/config"
	"provider-dashboard/core"

	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var errNoAddress = errors.New("--address is required")

// openDashboard connects a dashboard to --network, LOCALHOST when unset.
func openDashboard(ctx *cli.Context) (*frequency.Dashboard, error) {
	if err := startLogger(ctx); err != nil {
		return nil, err
	}
	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	network := cfg.Network
	if network == "" {
		network = core.Localhost
	}

	logger := log.Root().New("module", "cli")
	d := frequency.NewDashboard(core.NewStore(), core.NewRouter(logger), networksOf(cfg), dashboardOptions(cfg), logger)
	if err := d.Connect(network, cfg.Endpoint); err != nil {
		d.Stop()
		return nil, err
	}
	return d, nil
}

// resolveAccount accepts an address or the name of one of the valid accounts.
func resolveAccount(st core.State, s string) string {
	for _, a := range st.ValidAccounts {
		if a.Address == s || strings.EqualFold(a.Name, s) {
			return a.Address
		}
	}
	return s
}

func handleStatusCmd(ctx *cli.Context) error {
	d, err := openDashboard(ctx)
	if err != nil {
		return err
	}
	defer d.Stop()

	st := d.State()
	fmt.Printf("Network: %s %s\n", st.Network.Name, st.Network.Endpoint)
	fmt.Printf("Block: %d\nEpoch: %d\nToken: %s\n", st.BlockNumber, st.EpochNumber, st.Token)
	if fin, hash, err := d.FinalizedBlock(); err == nil {
		fmt.Printf("Finalized: %d %s\n", fin, hash)
	}

	providerId := ctx.Uint64(config.ProviderIdFlag.Name)
	if address := ctx.String(config.AddressFlag.Name); address != "" {
		address = resolveAccount(st, address)
		info, err := d.MsaInfo(address)
		if err != nil {
			return err
		}
		balance, err := d.Balance(address)
		if err != nil {
			return err
		}
		fmt.Printf("Address: %s\nBalance: %s\n", address, balance)
		if info.MsaId == 0 {
			fmt.Println("MSA: none")
		} else {
			fmt.Printf("MSA: %d\n", info.MsaId)
		}
		if info.IsProvider {
			fmt.Printf("Provider: %s\n", info.ProviderName)
			if providerId == 0 {
				providerId = info.MsaId
			}
		} else {
			fmt.Println(frequency.MsgNotProvider)
		}
	}

	if providerId != 0 {
		view, err := d.ProviderCapacity(providerId)
		if err != nil {
			return err
		}
		fmt.Println(view.Remaining)
		fmt.Println(view.TotalIssued)
		fmt.Println(view.LastReplenished)
		fmt.Println(view.StakedToken)
	}
	return nil
}

// submitTx selects --address as signer, runs submit and prints each status
// until the transaction is done.
func submitTx(ctx *cli.Context, submit func(d *frequency.Dashboard) (string, error)) error {
	d, err := openDashboard(ctx)
	if err != nil {
		return err
	}
	defer d.Stop()

	address := ctx.String(config.AddressFlag.Name)
	if address == "" {
		return errNoAddress
	}
	if _, err := d.SelectSigner(resolveAccount(d.State(), address)); err != nil {
		return fmt.Errorf("%s: %w", frequency.UserMessage(err), err)
	}

	txId, err := submit(d)
	if err != nil {
		return errors.New(frequency.UserMessage(err))
	}

	done := make(chan struct{})
	var failed bool
	unlisten, err := d.Router().Listen(txId, core.SinkFunc(func(msg *core.Message) {
		switch msg.Reason {
		case core.TxFailed, core.TxInvalid, core.TxError:
			failed = true
		}
		if msg.Content != "" {
			fmt.Println(msg.Content)
		}
		if msg.Reason.Terminal() {
			close(done)
		}
	}))
	if err != nil {
		return err
	}
	defer unlisten()
	<-done

	if failed {
		return fmt.Errorf("transaction %s did not succeed", txId)
	}
	st := d.State()
	fmt.Printf("MSA: %d Provider: %t %s\n", st.Msa.MsaId, st.Msa.IsProvider, st.Msa.ProviderName)
	return nil
}

func handleCreateMsaCmd(ctx *cli.Context) error {
	return submitTx(ctx, func(d *frequency.Dashboard) (string, error) {
		return d.CreateMsa()
	})
}

func handleCreateProviderCmd(ctx *cli.Context) error {
	return submitTx(ctx, func(d *frequency.Dashboard) (string, error) {
		return d.CreateProvider(ctx.String(config.NameFlag.Name))
	})
}

func handleAddKeyCmd(ctx *cli.Context) error {
	return submitTx(ctx, func(d *frequency.Dashboard) (string, error) {
		return d.AddControlKey(resolveAccount(d.State(), ctx.String(config.NewKeyFlag.Name)))
	})
}

func handleStakeCmd(ctx *cli.Context) error {
	return submitTx(ctx, func(d *frequency.Dashboard) (string, error) {
		return d.Stake(ctx.Uint64(config.ProviderIdFlag.Name), ctx.String(config.AmountFlag.Name))
	})
}
