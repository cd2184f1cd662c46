package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/store"
)

func (a *app) shareCommand() *cli.Command {
	return &cli.Command{
		Name:  "share",
		Usage: "Manage the shares whose price history is stored",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register a share",
				ArgsUsage: "TICKER",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "slug", Usage: "Unique slug, defaults to the lowercase ticker"},
					&cli.StringFlag{Name: "isin", Usage: "ISIN code"},
					&cli.BoolFlag{Name: "lookup", Usage: "Fill name and ISIN from the exchange securities list"},
				},
				Action: a.shareAdd,
			},
			{
				Name:   "list",
				Usage:  "List registered shares",
				Action: a.shareList,
			},
			{
				Name:      "delete",
				Usage:     "Delete a share and its prices",
				ArgsUsage: "SLUG",
				Action:    a.shareDelete,
			},
			{
				Name:      "prices",
				Usage:     "Print the stored prices of a share",
				ArgsUsage: "SLUG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "First date `YYYY-MM-DD`"},
					&cli.StringFlag{Name: "to", Usage: "Last date `YYYY-MM-DD`, inclusive"},
				},
				Action: a.sharePrices,
			},
		},
	}
}

func (a *app) shareAdd(ctx context.Context, cmd *cli.Command) error {
	ticker := strings.ToUpper(cmd.Args().First())
	if ticker == "" {
		return errors.New(errors.ErrCodeMissingParameter, "ticker argument is required")
	}

	share := &store.Share{
		Ticker: ticker,
		Name:   cmd.String("name"),
		Slug:   cmd.String("slug"),
		ISIN:   cmd.String("isin"),
	}

	if share.Slug == "" {
		share.Slug = strings.ToLower(ticker)
	}

	if cmd.Bool("lookup") {
		client, err := a.moexClient(cmd)
		if err != nil {
			return err
		}

		securities, err := client.Securities(ctx, ticker)
		if err != nil {
			return err
		}

		for _, sec := range securities {
			if !strings.EqualFold(sec.SecID, ticker) {
				continue
			}

			if share.Name == "" {
				share.Name = sec.Name
			}

			if share.ISIN == "" {
				share.ISIN = sec.ISIN
			}

			break
		}
	}

	if share.Name == "" {
		share.Name = ticker
	}

	st, err := a.openStore(ctx, cmd)
	if err != nil {
		return err
	}

	if err := st.CreateShare(ctx, share); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "added %s (%s)\n", share.Slug, share.Ticker)

	return nil
}

func (a *app) shareList(ctx context.Context, cmd *cli.Command) error {
	st, err := a.openStore(ctx, cmd)
	if err != nil {
		return err
	}

	shares, err := st.ListShares(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(shares))
	for _, share := range shares {
		rows = append(rows, []string{share.Slug, share.Ticker, share.Name, share.ISIN})
	}

	fmt.Fprintln(a.out, renderTable([]string{"slug", "ticker", "name", "isin"}, rows))

	return nil
}

func (a *app) shareDelete(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return errors.New(errors.ErrCodeMissingParameter, "slug argument is required")
	}

	st, err := a.openStore(ctx, cmd)
	if err != nil {
		return err
	}

	if err := st.DeleteShare(ctx, slug); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "deleted %s\n", slug)

	return nil
}

func (a *app) sharePrices(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return errors.New(errors.ErrCodeMissingParameter, "slug argument is required")
	}

	from, err := optionalDate(cmd, "from")
	if err != nil {
		return err
	}

	to, err := optionalDate(cmd, "to")
	if err != nil {
		return err
	}

	st, err := a.openStore(ctx, cmd)
	if err != nil {
		return err
	}

	share, err := st.GetShareBySlug(ctx, slug)
	if err != nil {
		return err
	}

	var toTime time.Time
	if to.IsSome() {
		toTime = to.Unwrap().AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	prices, err := st.ListPrices(ctx, share.ID, from.TakeOr(time.Time{}), toTime)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(prices))
	for _, p := range prices {
		change := ""
		if p.Change.Valid {
			change = p.Change.Decimal.String()
		}

		rows = append(rows, []string{p.Date.UTC().Format(time.RFC3339), p.Price.String(), change, p.Currency})
	}

	fmt.Fprintf(a.out, "%s (%d prices)\n", share.Ticker, len(prices))
	fmt.Fprintln(a.out, renderTable([]string{"date", "price", "change", "currency"}, rows))

	return nil
}
