// Package store archives per-turn decisions to Parquet for offline analysis
// and classifier training.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
)

const (
	SchemaDecisionRow = "decision_row_v1"
	StateFormatJSON   = "raw_json_v1"
)

// DecisionRow is one turn as seen by our engine.
//
// Features is the vector the classifier would see, in features.Names order.
// State is the raw snapshot so trainers can re-featurize after a Version bump.
type DecisionRow struct {
	GameID         string    `parquet:"game_id,dict"`
	Turn           int32     `parquet:"turn"`
	YouID          string    `parquet:"you_id,dict"`
	Width          int32     `parquet:"width"`
	Height         int32     `parquet:"height"`
	Features       []float32 `parquet:"features"`
	FeatureVersion string    `parquet:"feature_version,dict"`
	StateFormat    string    `parquet:"state_format,dict"`
	State          []byte    `parquet:"state"`
	Move           string    `parquet:"move,dict"`
	Proposed       string    `parquet:"proposed,dict"`
	Tier           string    `parquet:"tier,dict"`
	Overridden     bool      `parquet:"overridden"`
	ElapsedMicros  int64     `parquet:"elapsed_us"`
	Source         string    `parquet:"source,dict"`
}

// RawGameState is the model-agnostic snapshot stored in DecisionRow.State.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type RawGameState struct {
	Width   int32   `json:"width"`
	Height  int32   `json:"height"`
	Turn    int32   `json:"turn"`
	YouID   string  `json:"you_id"`
	Food    []Point `json:"food"`
	Hazards []Point `json:"hazards,omitempty"`
	Snakes  []Snake `json:"snakes"`
}

type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type Snake struct {
	ID     string  `json:"id"`
	Health int32   `json:"health"`
	Body   []Point `json:"body"`
}

func toPoints(ps []game.Point) []Point {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = Point{X: int32(p.X), Y: int32(p.Y)}
	}
	return out
}

func fromPoints(ps []Point) []game.Point {
	if len(ps) == 0 {
		return nil
	}
	out := make([]game.Point, len(ps))
	for i, p := range ps {
		out[i] = game.Point{X: int(p.X), Y: int(p.Y)}
	}
	return out
}

// RawFromState converts a game state into its archived form.
func RawFromState(s *game.GameState) RawGameState {
	raw := RawGameState{
		Width:   int32(s.Width),
		Height:  int32(s.Height),
		Turn:    int32(s.Turn),
		YouID:   s.YouID,
		Food:    toPoints(s.Food),
		Hazards: toPoints(s.Hazards),
		Snakes:  make([]Snake, len(s.Snakes)),
	}
	for i, sn := range s.Snakes {
		raw.Snakes[i] = Snake{ID: sn.ID, Health: int32(sn.Health), Body: toPoints(sn.Body)}
	}
	return raw
}

// State converts the archived form back into a game state.
func (r RawGameState) State() *game.GameState {
	s := &game.GameState{
		Width:   int(r.Width),
		Height:  int(r.Height),
		Turn:    int(r.Turn),
		YouID:   r.YouID,
		Food:    fromPoints(r.Food),
		Hazards: fromPoints(r.Hazards),
		Snakes:  make([]game.Snake, len(r.Snakes)),
	}
	for i, sn := range r.Snakes {
		s.Snakes[i] = game.Snake{ID: sn.ID, Health: int(sn.Health), Body: fromPoints(sn.Body)}
	}
	return s
}

func EncodeRawStateJSON(state RawGameState) ([]byte, error) {
	if state.Width <= 0 || state.Height <= 0 {
		return nil, fmt.Errorf("invalid state dimensions: %dx%d", state.Width, state.Height)
	}
	return json.Marshal(state)
}

func DecodeRawStateJSON(b []byte) (*game.GameState, error) {
	var raw RawGameState
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return raw.State(), nil
}

// NewDecisionRow builds the archive row for one decision. Malformed
// snapshots are archived without features so they can still be counted.
func NewDecisionRow(gameID, source string, state *game.GameState, d arbiter.Decision, ex *features.Extractor) (DecisionRow, error) {
	row := DecisionRow{
		GameID:         gameID,
		FeatureVersion: features.Version,
		StateFormat:    StateFormatJSON,
		Move:           d.Move.String(),
		Proposed:       d.Proposed.String(),
		Tier:           d.Tier,
		Overridden:     d.Overridden,
		ElapsedMicros:  d.Elapsed.Microseconds(),
		Source:         source,
	}
	if state == nil {
		return row, fmt.Errorf("nil state for game %s", gameID)
	}
	row.Turn = int32(state.Turn)
	row.YouID = state.YouID
	row.Width = int32(state.Width)
	row.Height = int32(state.Height)

	if d.Board != nil {
		if ex == nil {
			ex = &features.Extractor{}
		}
		v := ex.Extract(d.Board)
		row.Features = v.Slice()
	}

	if state.Width > 0 && state.Height > 0 {
		b, err := EncodeRawStateJSON(RawFromState(state))
		if err != nil {
			return row, err
		}
		row.State = b
	}
	return row, nil
}
