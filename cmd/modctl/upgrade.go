// AngelaMos | 2026
// upgrade.go

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/upgrade"
)

var cmdUpgrade = &cli.Command{
	Name:  "upgrade",
	Usage: "role upgrade request maintenance",
	Subcommands: []*cli.Command{
		{
			Name:  "purge-banned",
			Usage: "delete every pending request whose requester is banned",
			Action: func(cctx *cli.Context) error {
				env, err := open(cctx, false)
				if err != nil {
					return err
				}
				defer env.Close()

				publisher := events.NewPublisher(env.cfg.Queue, env.logger)
				if closer, ok := publisher.(interface{ Close() error }); ok {
					defer closer.Close() //nolint:errcheck // process is exiting
				}

				svc := upgrade.NewService(upgrade.Config{
					DB:        env.db.DB,
					Publisher: publisher,
					Logger:    env.logger,
				})

				removed, err := svc.RemoveUpgradeRequestsFromBannedUsers(cctx.Context)
				fmt.Printf("removed %d request(s)\n", removed)
				return err
			},
		},
	},
}
