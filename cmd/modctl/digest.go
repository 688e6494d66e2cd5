// AngelaMos | 2026
// digest.go

package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/digest"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

var cmdDigest = &cli.Command{
	Name:  "digest",
	Usage: "statistics digest mail",
	Subcommands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "collect statistics and mail the digest now",
			Action: runDigest,
		},
	},
}

func runDigest(cctx *cli.Context) error {
	env, err := open(cctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	mailer, err := digest.NewSMTPMailer(env.cfg.Mail)
	if err != nil {
		return err
	}

	renderer, err := digest.NewRenderer()
	if err != nil {
		return err
	}

	users := user.NewRepository(env.db.DB)
	job := digest.NewJob(digest.JobConfig{
		Collector:  digest.NewCollector(users, review.NewRepository(env.db.DB), env.cfg.Digest.Recent),
		Renderer:   renderer,
		Mailer:     mailer,
		LastRun:    digest.NewRedisLastRunStore(env.redis.Client, env.cfg.Digest.LastRunKey),
		Users:      users,
		Recipients: env.cfg.Digest.Recipients,
		Logger:     env.logger,
	})

	report, err := job.Run(cctx.Context)
	if report != nil {
		out, _ := json.Marshal(report) //nolint:errcheck // plain struct
		fmt.Println(string(out))
	}
	return err
}
