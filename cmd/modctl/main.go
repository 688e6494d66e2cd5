// AngelaMos | 2026
// main.go

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
)

func main() {
	app := cli.App{
		Name:  "modctl",
		Usage: "operator tool for the moderation admin backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config file",
				Value:   "config.yaml",
				EnvVars: []string{"MODCTL_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
	}
	app.Commands = []*cli.Command{
		cmdMigrate,
		cmdSeed,
		cmdWords,
		cmdClassifier,
		cmdDigest,
		cmdKeygen,
		cmdUpgrade,
	}
	app.RunAndExitOnError()
}

var cmdMigrate = &cli.Command{
	Name:  "migrate",
	Usage: "create or update the database schema",
	Action: func(cctx *cli.Context) error {
		env, err := open(cctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := core.Migrate(cctx.Context, env.db.DB); err != nil {
			return err
		}
		fmt.Println("schema up to date")
		return nil
	},
}

// environment is the set of connections a command needs. Redis is opened
// only for commands that touch sessions or the digest mark.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *core.Database
	redis  *core.Redis
}

func open(cctx *cli.Context, withRedis bool) (*environment, error) {
	cfg, err := config.Parse(cctx.String("config"))
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := core.NewDatabase(cctx.Context, cfg.Database)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: logger, db: db}

	if withRedis {
		env.redis, err = core.NewRedis(cctx.Context, cfg.Redis)
		if err != nil {
			env.Close()
			return nil, err
		}
	}
	return env, nil
}

func (e *environment) Close() {
	if e.redis != nil {
		_ = e.redis.Close() //nolint:errcheck // process is exiting
	}
	_ = e.db.Close() //nolint:errcheck // process is exiting
}

func requireArg(cctx *cli.Context, name string) (string, error) {
	v := cctx.Args().First()
	if v == "" {
		return "", fmt.Errorf("missing argument: %s", name)
	}
	return v, nil
}

