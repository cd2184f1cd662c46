package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/datasource"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
)

func optionalDate(cmd *cli.Command, name string) (optional.Option[time.Time], error) {
	value := cmd.String(name)
	if value == "" {
		return optional.None[time.Time](), nil
	}

	date, err := time.ParseInLocation(dateLayout, value, provider.MSK)
	if err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid --%s %q", name, value)
	}

	return optional.Some(date), nil
}

func (a *app) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the candles stored in a parquet export",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "First date `YYYY-MM-DD`"},
			&cli.StringFlag{Name: "to", Usage: "Last date `YYYY-MM-DD`, inclusive"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New(errors.ErrCodeMissingParameter, "file argument is required")
			}

			if err := a.setup(cmd); err != nil {
				return err
			}

			from, err := optionalDate(cmd, "from")
			if err != nil {
				return err
			}

			to, err := optionalDate(cmd, "to")
			if err != nil {
				return err
			}

			if to.IsSome() {
				to = optional.Some(to.Unwrap().AddDate(0, 0, 1).Add(-time.Nanosecond))
			}

			source, err := datasource.NewDataSource("", a.log)
			if err != nil {
				return err
			}
			defer source.Close()

			if err := source.Initialize(path); err != nil {
				return err
			}

			symbols, err := source.GetAllSymbols()
			if err != nil {
				return err
			}

			bySymbol := make(map[string][]types.MarketData, len(symbols))
			for row, err := range source.ReadAll(from, to) {
				if err != nil {
					return err
				}

				bySymbol[row.Symbol] = append(bySymbol[row.Symbol], row)
			}

			for _, symbol := range symbols {
				rows := bySymbol[symbol]
				if len(rows) == 0 {
					continue
				}

				series := marketdata.NewTimeSeries(symbol, "", rows[0].Time, rows[len(rows)-1].Time, rows)
				fmt.Fprintln(a.out, series.String())
			}

			return nil
		},
	}
}

func (a *app) schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON schema of a download config (moex, polygon, binance or period)",
		ArgsUsage: "NAME",
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				name = string(marketdata.ProviderMoex)
			}

			var (
				schema string
				err    error
			)

			if name == "period" {
				schema, err = marketdata.GetPeriodConfigSchema()
			} else {
				schema, err = marketdata.GetDownloadConfigSchema(name)
			}

			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, schema)

			return nil
		},
	}
}

func (a *app) providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List the supported market data providers",
		Action: func(_ context.Context, _ *cli.Command) error {
			var rows [][]string

			for _, name := range marketdata.GetSupportedProviders() {
				info, err := marketdata.GetProviderInfo(name)
				if err != nil {
					return err
				}

				rows = append(rows, []string{name, info.DisplayName, info.Description})
			}

			fmt.Fprintln(a.out, renderTable([]string{"name", "display name", "description"}, rows))

			return nil
		},
	}
}

func (a *app) securitiesCommand() *cli.Command {
	return &cli.Command{
		Name:      "securities",
		Usage:     "Search exchange instruments by ticker, name or ISIN",
		ArgsUsage: "QUERY",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if query == "" {
				return errors.New(errors.ErrCodeMissingParameter, "query argument is required")
			}

			client, err := a.moexClient(cmd)
			if err != nil {
				return err
			}

			securities, err := client.Securities(ctx, query)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(securities))
			for _, sec := range securities {
				rows = append(rows, []string{sec.SecID, sec.ShortName, sec.ISIN, sec.PrimaryBoard})
			}

			fmt.Fprintln(a.out, renderTable([]string{"secid", "name", "isin", "board"}, rows))

			return nil
		},
	}
}
