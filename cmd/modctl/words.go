// AngelaMos | 2026
// words.go

package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

var cmdWords = &cli.Command{
	Name:  "words",
	Usage: "manage the offensive word list",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "print every word",
			Action: withFilter(func(cctx *cli.Context, f *wordfilter.Filter) error {
				for _, w := range f.List() {
					fmt.Println(w)
				}
				return nil
			}),
		},
		{
			Name:      "add",
			Usage:     "add a word",
			ArgsUsage: "<word>",
			Action: withFilter(func(cctx *cli.Context, f *wordfilter.Filter) error {
				word, err := requireArg(cctx, "word")
				if err != nil {
					return err
				}
				return f.Add(cctx.Context, word)
			}),
		},
		{
			Name:      "delete",
			Usage:     "remove a word",
			ArgsUsage: "<word>",
			Action: withFilter(func(cctx *cli.Context, f *wordfilter.Filter) error {
				word, err := requireArg(cctx, "word")
				if err != nil {
					return err
				}
				return f.Delete(cctx.Context, word)
			}),
		},
		{
			Name:      "check",
			Usage:     "report whether text contains an offensive word",
			ArgsUsage: "<text>",
			Action: withFilter(func(cctx *cli.Context, f *wordfilter.Filter) error {
				text := strings.Join(cctx.Args().Slice(), " ")
				if matches := f.Matches(text); len(matches) > 0 {
					fmt.Printf("offensive: %s\n", strings.Join(matches, ", "))
					return nil
				}
				fmt.Println("clean")
				return nil
			}),
		},
	},
}

func withFilter(fn func(*cli.Context, *wordfilter.Filter) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		env, err := open(cctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := wordfilter.NewStore(env.cfg.Words, env.db.DB)
		if err != nil {
			return err
		}
		f, err := wordfilter.NewFilter(cctx.Context, store)
		if err != nil {
			return err
		}
		return fn(cctx, f)
	}
}
