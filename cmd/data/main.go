package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/internal/config"
	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
)

func run(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	// the terminal belongs to the viewer
	log, err := logger.NewStderrLogger("error")
	if err != nil {
		return err
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType: marketdata.ProviderMoex,
		WriterType:   marketdata.WriterType(cfg.Export.Format),
		DataPath:     cfg.Export.Dir,
		ISSBaseURL:   cfg.ISS.BaseURL,
		ISSBoard:     cfg.ISS.Board,
		ISSEngine:    cfg.ISS.Engine,
		ISSMarket:    cfg.ISS.Market,
		ISSTimeout:   cfg.ISS.Timeout,
	}, nil, log)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(NewModel(client), tea.WithAltScreen()).Run()

	return err
}

func main() {
	cmd := &cli.Command{
		Name:  "data",
		Usage: "Browse MOEX candle history in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config `FILE`",
				Sources: cli.EnvVars(config.PathEnv),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
