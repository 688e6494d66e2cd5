// AngelaMos | 2026
// bayes.go

package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/jbrukh/bayesian"

	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

const (
	Clean     bayesian.Class = "clean"
	Offensive bayesian.Class = "offensive"
)

// BayesModel serves verdicts from a serialized naive Bayes model. The file is
// read on first use and kept for the life of the process; a failed load is
// remembered and reported as ErrUnavailable on every call.
type BayesModel struct {
	path      string
	threshold float64
	logger    *slog.Logger

	once    sync.Once
	mu      sync.RWMutex
	model   *bayesian.Classifier
	loadErr error
	closed  bool
}

func NewBayesModel(path string, threshold float64, logger *slog.Logger) *BayesModel {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &BayesModel{path: path, threshold: threshold, logger: logger}
}

// NewBayesModelFrom wraps an already trained model.
func NewBayesModelFrom(model *bayesian.Classifier, threshold float64) *BayesModel {
	m := NewBayesModel("", threshold, slog.Default())
	m.once.Do(func() {})
	m.model = model
	return m
}

func (m *BayesModel) load() {
	model, err := bayesian.NewClassifierFromFile(m.path)
	if err != nil {
		m.loadErr = fmt.Errorf("load model %s: %w: %w", m.path, ErrUnavailable, err)
		m.logger.Error("classifier model unavailable", "path", m.path, "error", err)
		return
	}

	if classIndex(model, Offensive) < 0 {
		m.loadErr = fmt.Errorf("model %s has no %q class: %w", m.path, Offensive, ErrUnavailable)
		m.logger.Error("classifier model unavailable", "path", m.path, "error", m.loadErr)
		return
	}

	m.model = model
	m.logger.Info("classifier model loaded", "path", m.path, "documents", model.Learned())
}

func (m *BayesModel) Classify(_ context.Context, text string) (Result, error) {
	m.once.Do(m.load)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Result{}, fmt.Errorf("model closed: %w", ErrUnavailable)
	}
	if m.loadErr != nil {
		return Result{}, m.loadErr
	}

	return Score(m.model, text, m.threshold), nil
}

// Close releases the model. Later calls to Classify fail with ErrUnavailable.
func (m *BayesModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.model = nil
	return nil
}

// Score runs model over the tokens of text. Text without tokens is clean
// with zero confidence. Class scores are combined in log space, so long
// reviews full of unseen words cannot underflow to 0/0.
func Score(model *bayesian.Classifier, text string, threshold float64) Result {
	tokens := wordfilter.Tokenize(text)
	if len(tokens) == 0 {
		return Result{}
	}

	scores, _, _ := model.LogScores(tokens)
	idx := classIndex(model, Offensive)
	if idx < 0 || idx >= len(scores) {
		return Result{}
	}

	confidence := clamp01(softmax(scores, idx))
	return Result{IsOffensive: confidence >= threshold, Confidence: confidence}
}

// softmax turns log scores into the posterior of class idx.
func softmax(logScores []float64, idx int) float64 {
	top := math.Inf(-1)
	for _, s := range logScores {
		top = math.Max(top, s)
	}
	if math.IsInf(top, -1) || math.IsNaN(top) {
		return 0
	}

	var sum float64
	for _, s := range logScores {
		sum += math.Exp(s - top)
	}
	return math.Exp(logScores[idx]-top) / sum
}

func classIndex(model *bayesian.Classifier, class bayesian.Class) int {
	for i, c := range model.Classes {
		if c == class {
			return i
		}
	}
	return -1
}
