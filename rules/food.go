package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// FoodSettings mirrors the common Battlesnake server knobs. The official
// engine defaults are MinimumFood=1 and FoodSpawnChance=15.
//
// Callers pass an explicit *rand.Rand. A nil rng degrades to a deterministic
// decision derived from the state itself, which keeps transitions
// reproducible in tests without threading a seed everywhere.
type FoodSettings struct {
	// MinimumFood is topped up after every turn.
	MinimumFood int
	// FoodSpawnChance is the percent chance (0-100) of one extra food.
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// ApplyFoodSettings runs one round of food placement on an existing state,
// used to seed boards at game start.
func ApplyFoodSettings(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	applyFoodRules(state, rng, settings, 0x464F4F445F494E49)
}

func applyFoodRules(state *game.GameState, rng *rand.Rand, settings FoodSettings, salt uint64) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}
	if settings.FoodSpawnChance < 0 {
		settings.FoodSpawnChance = 0
	}
	if settings.FoodSpawnChance > 100 {
		settings.FoodSpawnChance = 100
	}

	deficit := settings.MinimumFood - len(state.Food)
	if deficit < 0 {
		deficit = 0
	}

	spawnExtra := false
	if settings.FoodSpawnChance > 0 {
		roll := uint64(0)
		if rng != nil {
			roll = uint64(rng.Intn(100))
		} else {
			roll = stateHash(state, salt) % 100
		}
		spawnExtra = int(roll) < settings.FoodSpawnChance
	}

	if deficit == 0 && !spawnExtra {
		return
	}

	if rng == nil {
		seed := int64(stateHash(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	occupied := make(map[game.Point]struct{}, 64)
	for i := range state.Snakes {
		if state.Snakes[i].Health <= 0 {
			continue
		}
		for _, p := range state.Snakes[i].Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, int(state.Width*state.Height))
	for y := int32(0); y < state.Height; y++ {
		for x := int32(0); x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				available = append(available, p)
			}
		}
	}

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		state.Food = append(state.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// stateHash is a cheap fingerprint of the parts of the state that change
// every turn, used for the nil-rng deterministic path.
func stateHash(state *game.GameState, salt uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Width))|uint64(uint32(state.Height))<<32)
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Turn)))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(state.Food)))
	_, _ = h.Write(buf[:])

	for i := range state.Snakes {
		s := &state.Snakes[i]
		if s.Health <= 0 || len(s.Body) == 0 {
			continue
		}
		_, _ = h.Write([]byte(s.Id))
		head := s.Head()
		binary.LittleEndian.PutUint64(buf[:], uint64(uint32(head.X))<<32|uint64(uint32(head.Y)))
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}
