package inference

import (
	"fmt"
	"math"

	"github.com/brensch/snekheat/arbiter"
)

// DefaultLabels is the class order the offline trainer emits: the move
// labels sorted alphabetically.
var DefaultLabels = []string{"down", "left", "right", "up"}

// Decode turns one row of model output into a Prediction. Rows that do not
// already look like a probability distribution are passed through softmax.
func Decode(row []float32, labels []string) (arbiter.Prediction, error) {
	if len(row) != len(labels) {
		return arbiter.Prediction{}, fmt.Errorf("model output has %d classes, want %d", len(row), len(labels))
	}
	if len(row) == 0 {
		return arbiter.Prediction{}, fmt.Errorf("empty model output")
	}

	probs := row
	if !isDistribution(row) {
		probs = softmax(row)
	}

	pred := arbiter.Prediction{Probabilities: make(map[string]float32, len(labels))}
	best := -1
	for i, p := range probs {
		pred.Probabilities[labels[i]] = p
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	pred.Label = labels[best]
	pred.Confidence = probs[best]
	return pred, nil
}

func isDistribution(row []float32) bool {
	var sum float64
	for _, v := range row {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			return false
		}
		sum += float64(v)
	}
	return math.Abs(sum-1) < 1e-3
}

func softmax(row []float32) []float32 {
	maxV := row[0]
	for _, v := range row[1:] {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float32, len(row))
	var sum float64
	for i, v := range row {
		e := math.Exp(float64(v - maxV))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
