package arbiter

import "errors"

var (
	// ErrClassifierUnavailable means no classifier is wired in, or it failed.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrLowConfidence means the classifier answered but not convincingly.
	ErrLowConfidence = errors.New("classifier confidence too low")
	// ErrNoMove means a tier could not name any neighbour to move to.
	ErrNoMove = errors.New("no candidate move")
)

// reason maps a tier error to a short metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrClassifierUnavailable):
		return "classifier_unavailable"
	case errors.Is(err, ErrLowConfidence):
		return "low_confidence"
	case errors.Is(err, ErrNoMove):
		return "no_move"
	case errors.Is(err, errPanic):
		return "panic"
	default:
		return "error"
	}
}
