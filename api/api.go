// Package api holds the Battlesnake HTTP API wire types.
package api

import "github.com/brensch/snekheat/game"

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int `json:"foodSpawnChance"`
	MinimumFood         int `json:"minimumFood"`
	HazardDamagePerTurn int `json:"hazardDamagePerTurn"`
}

type Board struct {
	Height  int           `json:"height"`
	Width   int           `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Health  int     `json:"health"`
	Body    []Coord `json:"body"`
	Latency string  `json:"latency"`
	Head    Coord   `json:"head"`
	Length  int     `json:"length"`
	Shout   string  `json:"shout"`
	Squad   string  `json:"squad"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

func toPoints(cs []Coord) []game.Point {
	if len(cs) == 0 {
		return nil
	}
	out := make([]game.Point, len(cs))
	for i, c := range cs {
		out[i] = game.Point{X: c.X, Y: c.Y}
	}
	return out
}

// State converts the request to our game state. Nothing is validated here;
// the engine rejects malformed snapshots itself.
func (req *GameRequest) State() *game.GameState {
	state := &game.GameState{
		Width:   req.Board.Width,
		Height:  req.Board.Height,
		YouID:   req.You.ID,
		Turn:    req.Turn,
		Food:    toPoints(req.Board.Food),
		Hazards: toPoints(req.Board.Hazards),
	}

	state.Snakes = make([]game.Snake, len(req.Board.Snakes))
	for i, s := range req.Board.Snakes {
		state.Snakes[i] = game.Snake{
			ID:     s.ID,
			Health: s.Health,
			Body:   toPoints(s.Body),
			Length: s.Length,
		}
	}
	return state
}
