// AngelaMos | 2026
// classifier.go

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/classifier"
	"github.com/carterperez-dev/moderation-admin/internal/config"
)

var cmdClassifier = &cli.Command{
	Name:  "classifier",
	Usage: "train and query the offensive-text classifier",
	Subcommands: []*cli.Command{
		{
			Name:  "train",
			Usage: "train a naive Bayes model from a labelled CSV (text,offensive)",
			Flags: []cli.Flag{
				&cli.PathFlag{Name: "dataset", Required: true, Usage: "CSV file of text,label rows"},
				&cli.PathFlag{Name: "out", Required: true, Usage: "where to write the model"},
				&cli.Float64Flag{Name: "threshold", Value: 0.5, Usage: "offensive probability cut-off"},
			},
			Action: runTrain,
		},
		{
			Name:      "check",
			Usage:     "classify text with the configured backend",
			ArgsUsage: "<text>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "text", Usage: "text to classify; defaults to the arguments"},
			},
			Action: runClassify,
		},
	},
}

func runTrain(cctx *cli.Context) error {
	f, err := os.Open(cctx.Path("dataset"))
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	examples, err := classifier.ReadDataset(f)
	if err != nil {
		return err
	}

	model, eval, err := classifier.Train(examples, cctx.Float64("threshold"))
	if err != nil {
		return err
	}
	if err := classifier.SaveModel(model, cctx.Path("out")); err != nil {
		return err
	}

	out, err := json.MarshalIndent(eval, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runClassify(cctx *cli.Context) error {
	text := cctx.String("text")
	if text == "" {
		text = strings.Join(cctx.Args().Slice(), " ")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("missing argument: text")
	}

	cfg, err := config.Parse(cctx.String("config"))
	if err != nil {
		return err
	}

	clf, err := classifier.New(cfg.Classifier, slog.Default())
	if err != nil {
		return err
	}

	res, err := clf.Classify(cctx.Context, text)
	if err != nil {
		return err
	}
	fmt.Printf("offensive=%t confidence=%.3f\n", res.IsOffensive, res.Confidence)
	return nil
}
