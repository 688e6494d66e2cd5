// AngelaMos | 2026
// seed.go

package main

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/upgrade"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

var cmdSeed = &cli.Command{
	Name:  "seed",
	Usage: "fill the database with fake users, reviews and upgrade requests",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "users", Value: 50, Usage: "number of regular users"},
		&cli.IntFlag{Name: "reviews", Value: 200, Usage: "number of reviews"},
		&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed; 0 picks one"},
		&cli.StringFlag{
			Name:    "manager-password",
			Usage:   "password for the seeded manager@example.com account",
			EnvVars: []string{"SEED_MANAGER_PASSWORD"},
		},
	},
	Action: runSeed,
}

func runSeed(cctx *cli.Context) error {
	ctx := cctx.Context
	env, err := open(cctx, false)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := core.Migrate(ctx, env.db.DB); err != nil {
		return err
	}

	faker := gofakeit.New(cctx.Int64("seed"))
	users := user.NewService(user.NewRepository(env.db.DB))
	reviews := review.NewRepository(env.db.DB)
	upgrades := upgrade.NewService(upgrade.Config{DB: env.db.DB, Logger: env.logger})

	password := cctx.String("manager-password")
	if password == "" {
		password = faker.Password(true, true, true, false, false, 20)
	}
	if _, err := users.Register(ctx, "manager@example.com", "Site Manager", password, role.User, role.Admin, role.Manager); err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}
	fmt.Printf("manager@example.com / %s\n", password)

	var ids []int64
	for i := 0; i < cctx.Int("users"); i++ {
		var roles []role.Type
		switch n := faker.Number(1, 20); {
		case n == 1:
			roles = []role.Type{role.User, role.Admin}
		case n <= 3:
			roles = []role.Type{role.Banned}
		default:
			roles = []role.Type{role.User}
		}

		u, err := users.Register(ctx, faker.Email(), faker.Name(), "", roles...)
		if err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		ids = append(ids, u.ID)

		if u.IsBanned() && faker.Bool() {
			if err := users.SubmitAppeal(ctx, u.ID); err != nil {
				return err
			}
		}
		if faker.Number(1, 10) == 1 {
			if _, err := upgrades.Create(ctx, u.ID); err != nil {
				return err
			}
		}
	}

	if len(ids) == 0 {
		fmt.Println("no users seeded, skipping reviews")
		return nil
	}

	now := time.Now().UTC()
	for i := 0; i < cctx.Int("reviews"); i++ {
		opts := []review.Option{
			review.WithCreatedAt(faker.DateRange(now.AddDate(0, 0, -30), now)),
			review.WithFlags(flagsFor(faker)),
		}
		if faker.Number(1, 15) == 1 {
			opts = append(opts, review.Hidden())
		}

		author := ids[faker.Number(0, len(ids)-1)]
		r := review.New(author, faker.Number(1, 5), faker.Sentence(faker.Number(4, 18)), opts...)
		if err := reviews.Create(ctx, r); err != nil {
			return fmt.Errorf("seed review: %w", err)
		}
	}

	fmt.Printf("seeded %d users and %d reviews\n", len(ids), cctx.Int("reviews"))
	return nil
}

// Most reviews are never flagged; a few collect several flags.
func flagsFor(faker *gofakeit.Faker) int {
	switch n := faker.Number(1, 10); {
	case n <= 7:
		return 0
	case n <= 9:
		return 1
	default:
		return faker.Number(2, 6)
	}
}
