// AngelaMos | 2026
// train.go

package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

// Example is one labeled training document.
type Example struct {
	Text      string
	Offensive bool
}

// Evaluation summarizes a model against the held-out examples.
type Evaluation struct {
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// holdoutEvery puts every fifth example in the test split (80/20).
const holdoutEvery = 5

// ReadDataset parses CSV rows of text,label. A first row whose label column
// does not parse as a boolean is treated as a header.
func ReadDataset(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var examples []Example
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}

		label, err := strconv.ParseBool(strings.TrimSpace(record[1]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("dataset line %d: label %q is not a boolean", line, record[1])
		}

		examples = append(examples, Example{Text: record[0], Offensive: label})
	}

	if len(examples) == 0 {
		return nil, errors.New("read dataset: no examples")
	}
	return examples, nil
}

// Train fits a naive Bayes model on 80% of examples and evaluates it on the
// rest at the given threshold.
func Train(examples []Example, threshold float64) (*bayesian.Classifier, Evaluation, error) {
	var train, test []Example
	for i, ex := range examples {
		if i%holdoutEvery == holdoutEvery-1 {
			test = append(test, ex)
		} else {
			train = append(train, ex)
		}
	}

	if len(train) == 0 {
		return nil, Evaluation{}, errors.New("train: not enough examples")
	}

	model := bayesian.NewClassifier(Clean, Offensive)
	for _, ex := range train {
		tokens := wordfilter.Tokenize(ex.Text)
		if len(tokens) == 0 {
			continue
		}
		model.Learn(tokens, labelClass(ex.Offensive))
	}

	eval := Evaluate(model, test, threshold)
	eval.TrainSize = len(train)
	return model, eval, nil
}

// Evaluate scores model on examples.
func Evaluate(model *bayesian.Classifier, examples []Example, threshold float64) Evaluation {
	var tp, fp, tn, fn int
	for _, ex := range examples {
		predicted := Score(model, ex.Text, threshold).IsOffensive
		switch {
		case predicted && ex.Offensive:
			tp++
		case predicted && !ex.Offensive:
			fp++
		case !predicted && ex.Offensive:
			fn++
		default:
			tn++
		}
	}

	eval := Evaluation{TestSize: len(examples)}
	if total := tp + fp + tn + fn; total > 0 {
		eval.Accuracy = float64(tp+tn) / float64(total)
	}
	if tp+fp > 0 {
		eval.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		eval.Recall = float64(tp) / float64(tp+fn)
	}
	return eval
}

// SaveModel serializes model to path for BayesModel to load.
func SaveModel(model *bayesian.Classifier, path string) error {
	if err := model.WriteToFile(path); err != nil {
		return fmt.Errorf("save model %s: %w", path, err)
	}
	return nil
}

func labelClass(offensive bool) bayesian.Class {
	if offensive {
		return Offensive
	}
	return Clean
}
