// AngelaMos | 2026
// classifier.go

// Package classifier decides whether review text is offensive. The
// moderation workflow only sees the Classifier interface; the model behind it
// is either a naive Bayes model trained offline with modctl, or a remote
// model server.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/carterperez-dev/moderation-admin/internal/config"
)

// ErrUnavailable means no verdict could be produced because the model could
// not be loaded or reached. It never means "not offensive".
var ErrUnavailable = errors.New("classifier unavailable")

type Result struct {
	IsOffensive bool    `json:"is_offensive"`
	Confidence  float64 `json:"confidence"`
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// New builds the classifier selected by cfg.Backend.
func New(cfg config.ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	switch cfg.Backend {
	case config.ClassifierBayes:
		return NewBayesModel(cfg.ModelPath, cfg.Threshold, logger), nil
	case config.ClassifierRemote:
		return NewRemote(cfg, logger), nil
	case config.ClassifierNone, "":
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

// Unavailable is the classifier used when none is configured.
type Unavailable struct{}

func (Unavailable) Classify(context.Context, string) (Result, error) {
	return Result{}, fmt.Errorf("no classifier configured: %w", ErrUnavailable)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
