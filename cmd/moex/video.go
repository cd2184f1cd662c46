package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/video"
)

func (a *app) videoCommand() *cli.Command {
	return &cli.Command{
		Name:  "video",
		Usage: "Find YouTube videos about an instrument",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search videos by query",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "order",
						Usage: "date, rating, relevance, title or viewCount",
						Value: string(video.DefaultOrder),
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of results",
						Value: video.DefaultMaxResults,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := a.videoClient(cmd)
					if err != nil {
						return err
					}

					videos, err := client.Search(ctx, video.SearchParams{
						Query:      strings.Join(cmd.Args().Slice(), " "),
						Order:      video.Order(cmd.String("order")),
						MaxResults: int(cmd.Int("max")),
					})
					if err != nil {
						return err
					}

					a.printVideos(videos)

					return nil
				},
			},
			{
				Name:      "get",
				Usage:     "Show videos by id",
				ArgsUsage: "ID...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ids := cmd.Args().Slice()
					if len(ids) == 0 {
						return errors.New(errors.ErrCodeMissingParameter, "at least one video id is required")
					}

					client, err := a.videoClient(cmd)
					if err != nil {
						return err
					}

					videos, err := client.Videos(ctx, ids...)
					if err != nil {
						return err
					}

					for _, v := range videos {
						fmt.Fprintf(a.out, "%s\n%s\n%s\n\n", v.String(), v.ChannelTitle, v.Description)
					}

					return nil
				},
			},
		},
	}
}

func (a *app) printVideos(videos []video.Video) {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{v.PublishedAt.Format(dateLayout), v.Title, v.ChannelTitle, v.URL()})
	}

	fmt.Fprintln(a.out, renderTable([]string{"published", "title", "channel", "url"}, rows))
}
