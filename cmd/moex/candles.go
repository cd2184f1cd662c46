package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
)

const dateLayout = "2006-01-02"

func periodFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "period",
			Aliases: []string{"p"},
			Usage:   "Period unit: d (trading days), w, m or y",
			Value:   string(marketdata.PeriodDay),
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "Number of period units",
			Value:   10,
		},
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Candle interval: 1min, 10min, h, d, w, m or a timespan such as 1h",
			Value:   string(marketdata.TimespanOneDay),
		},
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Reference date `YYYY-MM-DD`, defaults to today in Moscow",
		},
		&cli.BoolFlag{
			Name:  "include-ref",
			Usage: "Count the reference day itself as a trading day",
		},
	}
}

// periodFromFlags reads the flags of periodFlags.
func periodFromFlags(cmd *cli.Command) (marketdata.PeriodSpec, marketdata.Timespan, error) {
	spec := marketdata.NewPeriodSpec(marketdata.ParsePeriodUnit(cmd.String("period")), int(cmd.Int("count")))
	spec.IncludeReferenceDay = cmd.Bool("include-ref")

	if ref := cmd.String("ref"); ref != "" {
		date, err := time.ParseInLocation(dateLayout, ref, provider.MSK)
		if err != nil {
			return spec, "", errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid reference date %q", ref)
		}

		spec = spec.WithReferenceDate(date)
	}

	if err := spec.Validate(); err != nil {
		return spec, "", err
	}

	return spec, marketdata.ParseTimeframe(cmd.String("interval")), nil
}

// loadSeries resolves the period of cmd for ticker. A short trading-day history is reported
// on the error stream and the available rows are kept.
func (a *app) loadSeries(ctx context.Context, cmd *cli.Command, ticker string) (*marketdata.TimeSeries, *marketdata.Client, error) {
	if ticker == "" {
		return nil, nil, errors.New(errors.ErrCodeMissingParameter, "ticker argument is required")
	}

	spec, timespan, err := periodFromFlags(cmd)
	if err != nil {
		return nil, nil, err
	}

	client, err := a.marketClient(cmd)
	if err != nil {
		return nil, nil, err
	}

	series, err := client.Series(ctx, strings.ToUpper(ticker), spec, timespan)
	if err != nil {
		if !errors.IsInsufficientDataError(err) {
			return nil, nil, err
		}

		fmt.Fprintf(a.errOut, "warning: %v\n", err)
	}

	return series, client, nil
}

func (a *app) candlesCommand() *cli.Command {
	return &cli.Command{
		Name:      "candles",
		Usage:     "Print the candles of the last period",
		ArgsUsage: "TICKER",
		Flags: append(periodFlags(),
			&cli.StringFlag{
				Name:  "fill",
				Usage: "Fill missing values: ffill or bfill",
			},
			&cli.BoolFlag{
				Name:  "dropna",
				Usage: "Drop rows with missing values",
			},
			&cli.BoolFlag{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Also export the candles in the configured format",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			series, client, err := a.loadSeries(ctx, cmd, cmd.Args().First())
			if err != nil {
				return err
			}

			if method := cmd.String("fill"); method != "" {
				if series, err = series.FillNA(marketdata.FillMethod(method)); err != nil {
					return err
				}
			}

			if cmd.Bool("dropna") {
				series = series.DropNA()
			}

			fmt.Fprintln(a.out, series.String())

			if series.HasNulls() {
				fmt.Fprintf(a.errOut, "missing values: %v\n", series.NullsByColumn())
			}

			if !cmd.Bool("export") {
				return nil
			}

			path, err := client.Export(series)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "exported to %s\n", path)

			return nil
		},
	}
}

type statsReport struct {
	Summary     marketdata.Summary            `yaml:"summary"`
	Correlation map[string]map[string]float64 `yaml:"correlation,omitempty"`
}

func (a *app) statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Print summary statistics of the last period as YAML",
		ArgsUsage: "TICKER",
		Flags: append(periodFlags(),
			&cli.StringFlag{
				Name:  "corr",
				Usage: "Comma-separated columns to correlate, empty to skip",
				Value: "open,close,volume",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			series, _, err := a.loadSeries(ctx, cmd, cmd.Args().First())
			if err != nil {
				return err
			}

			report := statsReport{Summary: series.Summary()}

			if list := cmd.String("corr"); list != "" {
				corr, err := series.Corr(strings.Split(list, ",")...)
				if err != nil {
					return err
				}

				report.Correlation = make(map[string]map[string]float64, len(corr.Columns))
				for i, left := range corr.Columns {
					report.Correlation[left] = make(map[string]float64, len(corr.Columns))
					for j, right := range corr.Columns {
						report.Correlation[left][right] = corr.Matrix[i][j]
					}
				}
			}

			body, err := yaml.Marshal(report)
			if err != nil {
				return err
			}

			_, err = a.out.Write(body)

			return err
		},
	}
}

func (a *app) downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download an explicit date range into the export directory",
		ArgsUsage: "TICKER",
		Flags: []cli.Flag{
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   cli.TimestampConfig{Layouts: []string{dateLayout}},
			},
			&cli.TimestampFlag{
				Name:     "end",
				Aliases:  []string{"e"},
				Usage:    "End date in `YYYY-MM-DD` format",
				Required: true,
				Config:   cli.TimestampConfig{Layouts: []string{dateLayout}},
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candle interval",
				Value:   string(marketdata.TimespanOneDay),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ticker := strings.ToUpper(cmd.Args().First())
			if ticker == "" {
				return errors.New(errors.ErrCodeMissingParameter, "ticker argument is required")
			}

			client, err := a.marketClient(cmd)
			if err != nil {
				return err
			}

			timespan := marketdata.ParseTimeframe(cmd.String("interval"))

			path, err := client.Download(ctx, marketdata.DownloadParams{
				Ticker:     ticker,
				StartDate:  cmd.Timestamp("start"),
				EndDate:    cmd.Timestamp("end"),
				Multiplier: timespan.Multiplier(),
				Timespan:   timespan.Timespan(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "downloaded to %s\n", path)

			return nil
		},
	}
}
