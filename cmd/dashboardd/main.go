package main

import (
	"os"
	"strconv"
	"strings"

	"provider-dashboard/chains/frequency"
	"provider-dashboard/config"
	"provider-dashboard/core"
	"provider-dashboard/server"

	log "github.com/ChainSafe/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var app = cli.NewApp()

var cliFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.VerbosityFlag,
	config.KeystorePathFlag,
	config.NetworkFlag,
	config.EndpointFlag,
	config.ListenFlag,
	config.InsecureFlag,
}

var generateFlags = []cli.Flag{
	config.KeystorePathFlag,
	config.SS58FormatFlag,
}

var accountCommand = cli.Command{
	Name:        "accounts",
	Usage:       "manage keystores",
	Description: "The accounts command is used to manage the keystore.\n",
	Subcommands: []*cli.Command{
		{
			Action: handleGenerateSubCmd,
			Name:   "gensub",
			Usage:  "generate substrate keystore",
			Flags:  generateFlags,
			Description: "The generate subcommand is used to generate the substrate keystore.\n" +
				"\tkeystore path should be given.",
		},
	},
}

var statusCommand = cli.Command{
	Action: handleStatusCmd,
	Name:   "status",
	Usage:  "print chain, msa and capacity info",
	Flags:  []cli.Flag{config.AddressFlag, config.ProviderIdFlag},
	Description: "The status command connects to --network and prints block, epoch and token.\n" +
		"\tWith --address it adds msa, provider and balance, with --provider the capacity ledger.",
}

var txCommand = cli.Command{
	Name:        "tx",
	Usage:       "submit transactions",
	Description: "The tx command signs with --address and prints every status until the transaction is done.\n",
	Subcommands: []*cli.Command{
		{
			Action: handleCreateMsaCmd,
			Name:   "create-msa",
			Usage:  "create an msa for the signing address",
			Flags:  []cli.Flag{config.AddressFlag},
		}, {
			Action: handleCreateProviderCmd,
			Name:   "create-provider",
			Usage:  "register the signing address' msa as a provider",
			Flags:  []cli.Flag{config.AddressFlag, config.NameFlag},
		}, {
			Action: handleAddKeyCmd,
			Name:   "add-key",
			Usage:  "add a control key to the signing address' msa",
			Flags:  []cli.Flag{config.AddressFlag, config.NewKeyFlag},
		}, {
			Action: handleStakeCmd,
			Name:   "stake",
			Usage:  "stake token to a provider",
			Flags:  []cli.Flag{config.AddressFlag, config.ProviderIdFlag, config.AmountFlag},
		},
	},
}

// init initializes CLI
func init() {
	app.Action = run
	app.Copyright = "Copyright 2021 Stafi Protocol Authors"
	app.Name = "dashboardd"
	app.Usage = "frequency provider dashboard"
	app.Authors = []*cli.Author{{Name: "Stafi Protocol 2021"}}
	app.Version = "1.0.0"
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		&accountCommand,
		&statusCommand,
		&txCommand,
	}

	app.Flags = append(app.Flags, cliFlags...)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func startLogger(ctx *cli.Context) error {
	logger := log.Root()
	var lvl log.Lvl

	if lvlToInt, err := strconv.Atoi(ctx.String(config.VerbosityFlag.Name)); err == nil {
		lvl = log.Lvl(lvlToInt)
	} else if lvl, err = log.LvlFromString(ctx.String(config.VerbosityFlag.Name)); err != nil {
		return err
	}

	logger.SetHandler(log.MultiHandler(
		log.LvlFilterHandler(
			lvl,
			log.StreamHandler(os.Stdout, log.LogfmtFormat())),
		log.Must.FileHandler("dashboard_log.json", log.JsonFormat()),
		log.LvlFilterHandler(
			log.LvlError,
			log.Must.FileHandler("dashboard_log_errors.json", log.JsonFormat()))))

	return nil
}

func networksOf(cfg *config.Config) *core.Networks {
	extra := make([]core.NetworkInfo, 0, len(cfg.Networks))
	for _, n := range cfg.Networks {
		extra = append(extra, core.NetworkInfo{
			Name:        strings.ToUpper(n.Name),
			Endpoint:    n.Endpoint,
			GenesisHash: n.GenesisHash,
		})
	}
	return core.NewNetworks(extra)
}

func dashboardOptions(cfg *config.Config) frequency.Options {
	return frequency.Options{
		KeystorePath: cfg.KeystorePath,
		TypesPath:    cfg.TypesPath,
		TxTimeout:    cfg.TxTimeout,
		Insecure:     cfg.Insecure,
	}
}

func run(ctx *cli.Context) error {
	err := startLogger(ctx)
	if err != nil {
		return err
	}

	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}

	// Used to signal core shutdown due to fatal error
	sysErr := make(chan error, 1)
	c := core.NewCore(sysErr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	if err := frequency.RegisterMetrics(reg); err != nil {
		return err
	}
	if err := server.RegisterMetrics(reg); err != nil {
		return err
	}

	dash := frequency.NewDashboard(c.Store, c.Router, networksOf(cfg), dashboardOptions(cfg), log.Root().New("module", "dashboard"))
	c.AddStopper(dash)

	srv := server.NewServer(server.Options{
		Listen:       cfg.Listen,
		AllowOrigins: cfg.AllowOrigins,
		RateRPS:      cfg.RateLimit.RPS,
		RateBurst:    cfg.RateLimit.Burst,
	}, dash, reg, log.Root().New("module", "server"), sysErr)
	if err := srv.Start(); err != nil {
		dash.Stop()
		return err
	}
	c.AddStopper(srv)

	if cfg.Network != "" {
		if err := dash.Connect(cfg.Network, cfg.Endpoint); err != nil {
			log.Warn("initial connect failed, pick a network on the dashboard", "network", cfg.Network, "err", err)
		}
	}

	c.Start()
	return nil
}
