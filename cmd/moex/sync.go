package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/internal/scheduler"
)

func (a *app) syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Refresh the stored prices of every share, once or on the configured schedule",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sync and exit",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Trading days to refresh, overrides sync.trade_days",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := a.marketClient(cmd)
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx, cmd)
			if err != nil {
				return err
			}

			days := a.cfg.Sync.TradeDays
			if n := int(cmd.Int("days")); n > 0 {
				days = n
			}

			syncer := scheduler.NewSyncer(client.Resolver(), st, days, a.cfg.Sync.Currency, a.log)

			sched, err := scheduler.New(syncer, a.cfg.Sync.Cron, a.log)
			if err != nil {
				return err
			}

			if cmd.Bool("once") {
				results, err := sched.RunOnce(ctx)
				if err != nil {
					return err
				}

				a.printResults(results)

				return nil
			}

			sched.Start(ctx)
			fmt.Fprintf(a.out, "next sync at %s\n", sched.Next().Format("2006-01-02 15:04 MST"))

			<-ctx.Done()
			<-sched.Stop().Done()

			return nil
		},
	}
}

func (a *app) printResults(results []scheduler.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}

		rows = append(rows, []string{r.Slug, r.Ticker, fmt.Sprint(r.Saved), status})
	}

	fmt.Fprintln(a.out, renderTable([]string{"slug", "ticker", "saved", "status"}, rows))
}
