package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekheat/game"
)

const sampleMove = `{
  "game": {"id": "g-1", "ruleset": {"name": "standard", "version": "v1.2.3"}, "timeout": 500, "source": "league"},
  "turn": 14,
  "board": {
    "height": 11, "width": 11,
    "food": [{"x": 5, "y": 6}],
    "hazards": [{"x": 0, "y": 0}],
    "snakes": [
      {"id": "me", "name": "me", "health": 54, "length": 3, "body": [{"x": 5, "y": 5}, {"x": 5, "y": 4}, {"x": 5, "y": 3}], "head": {"x": 5, "y": 5}},
      {"id": "o", "name": "o", "health": 16, "length": 4, "body": [{"x": 1, "y": 1}, {"x": 1, "y": 2}, {"x": 1, "y": 3}, {"x": 1, "y": 3}], "head": {"x": 1, "y": 1}}
    ]
  },
  "you": {"id": "me", "name": "me", "health": 54, "length": 3, "body": [{"x": 5, "y": 5}, {"x": 5, "y": 4}, {"x": 5, "y": 3}], "head": {"x": 5, "y": 5}}
}`

func TestGameRequest_State(t *testing.T) {
	var req GameRequest
	require.NoError(t, json.Unmarshal([]byte(sampleMove), &req))
	assert.Equal(t, 500, req.Game.Timeout)
	assert.Equal(t, "standard", req.Game.Ruleset.Name)

	st := req.State()
	assert.Equal(t, 11, st.Width)
	assert.Equal(t, 14, st.Turn)
	assert.Equal(t, "me", st.YouID)
	assert.Equal(t, []game.Point{{X: 5, Y: 6}}, st.Food)
	assert.Equal(t, []game.Point{{X: 0, Y: 0}}, st.Hazards)
	require.Len(t, st.Snakes, 2)
	assert.Equal(t, 4, st.Snakes[1].Length)
	assert.Equal(t, game.Point{X: 1, Y: 3}, st.Snakes[1].Tail())
	assert.Equal(t, 16, st.Snakes[1].Health)
	require.NoError(t, game.Validate(st))
}

func TestGameRequest_StateDoesNotValidate(t *testing.T) {
	req := GameRequest{You: Battlesnake{ID: "ghost"}}
	st := req.State()
	assert.Equal(t, "ghost", st.YouID)
	assert.Nil(t, st.You())
	assert.Error(t, game.Validate(st))
}
