package arbiter

import (
	"context"

	"github.com/brensch/snekheat/features"
)

// Prediction is a classifier's answer for one board.
type Prediction struct {
	Label         string
	Confidence    float32
	Probabilities map[string]float32
}

// Classifier maps a feature vector to a move label. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, v features.Vector) (Prediction, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, v features.Vector) (Prediction, error)

func (f ClassifierFunc) Classify(ctx context.Context, v features.Vector) (Prediction, error) {
	return f(ctx, v)
}
