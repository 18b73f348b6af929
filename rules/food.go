package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/brensch/snekheat/game"
)

// FoodSettings matches the common Battlesnake server knobs:
// MinimumFood is topped up after each turn and FoodSpawnChance is the
// percentage chance (0-100) of one extra food per turn.
//
// A nil rng makes spawning a pure function of the state, which keeps tests
// and replays stable.
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

func applyFoodRules(state *game.GameState, rng *rand.Rand, settings FoodSettings, salt uint64) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}
	settings.MinimumFood = max(settings.MinimumFood, 0)
	settings.FoodSpawnChance = min(max(settings.FoodSpawnChance, 0), 100)

	deficit := max(settings.MinimumFood-len(state.Food), 0)

	spawnExtra := false
	if settings.FoodSpawnChance > 0 {
		if rng != nil {
			spawnExtra = rng.Intn(100) < settings.FoodSpawnChance
		} else {
			spawnExtra = int(deterministicU64(state, salt)%100) < settings.FoodSpawnChance
		}
	}

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	if rng == nil {
		seed := int64(deterministicU64(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	occupied := make(map[game.Point]struct{}, state.Width*state.Height)
	for _, s := range state.Snakes {
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, state.Width*state.Height)
	for y := 0; y < state.Height; y++ {
		for x := 0; x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; ok {
				continue
			}
			available = append(available, p)
		}
	}

	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		state.Food = append(state.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// ApplyFoodSettings applies Battlesnake-style food spawning to an existing
// state, e.g. to place the minimum food at game start.
func ApplyFoodSettings(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	applyFoodRules(state, rng, settings, 0x464F4F445F494E49) // "FOOD_INI"
}

// deterministicU64 mixes turn, board size, snake heads and food count.
func deterministicU64(state *game.GameState, salt uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Width))|(uint64(uint32(state.Height))<<32))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Turn)))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(state.Food)))
	_, _ = h.Write(buf[:])

	for _, s := range state.Snakes {
		if len(s.Body) == 0 {
			continue
		}
		_, _ = h.Write([]byte(s.ID))
		head := s.Body[0]
		binary.LittleEndian.PutUint64(buf[:], (uint64(uint32(head.X))<<32)|uint64(uint32(head.Y)))
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}
