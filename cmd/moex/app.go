package main

import (
	"context"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/internal/config"
	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/internal/version"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-moex/pkg/store"
	"github.com/rxtech-lab/argo-moex/pkg/video"
)

// app carries what the commands share: configuration, logger and output streams.
type app struct {
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	cfg *config.Config
	log *logger.Logger
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		now:    time.Now,
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "moex",
		Usage:     "Moscow Exchange candles, statistics and share price history",
		Version:   version.GetVersion(),
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config `FILE`",
				Sources: cli.EnvVars(config.PathEnv),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			a.candlesCommand(),
			a.statsCommand(),
			a.downloadCommand(),
			a.showCommand(),
			a.schemaCommand(),
			a.providersCommand(),
			a.securitiesCommand(),
			a.shareCommand(),
			a.syncCommand(),
			a.videoCommand(),
		},
	}
}

// setup loads the configuration and logger once per run.
func (a *app) setup(cmd *cli.Command) error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	log, err := logger.NewStderrLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log

	return nil
}

func (a *app) marketClient(cmd *cli.Command) (*marketdata.Client, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}

	return marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderMoex,
		WriterType:    marketdata.WriterType(a.cfg.Export.Format),
		DataPath:      a.cfg.Export.Dir,
		PolygonApiKey: a.cfg.Polygon.APIKey,
		ISSBaseURL:    a.cfg.ISS.BaseURL,
		ISSBoard:      a.cfg.ISS.Board,
		ISSEngine:     a.cfg.ISS.Engine,
		ISSMarket:     a.cfg.ISS.Market,
		ISSTimeout:    a.cfg.ISS.Timeout,
	}, nil, a.log, marketdata.WithClientClock(a.now))
}

func (a *app) moexClient(cmd *cli.Command) (*provider.MoexClient, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}

	opts := []provider.MoexOption{
		provider.WithBaseURL(a.cfg.ISS.BaseURL),
		provider.WithEngine(a.cfg.ISS.Engine),
		provider.WithMarket(a.cfg.ISS.Market),
		provider.WithTimeout(a.cfg.ISS.Timeout),
		provider.WithLogger(a.log),
	}

	if a.cfg.ISS.Board != "" {
		opts = append(opts, provider.WithBoard(a.cfg.ISS.Board))
	}

	return provider.NewMoexClient(opts...), nil
}

func (a *app) openStore(ctx context.Context, cmd *cli.Command) (*store.Store, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}

	db, err := store.Open(store.Driver(a.cfg.Database.Driver), a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	st := store.NewStore(db, a.log)
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	return st, nil
}

func (a *app) videoClient(cmd *cli.Command) (*video.Client, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}

	return video.NewClient(a.cfg.YouTube.APIKey,
		video.WithBaseURL(a.cfg.YouTube.BaseURL),
		video.WithLogger(a.log),
	)
}
