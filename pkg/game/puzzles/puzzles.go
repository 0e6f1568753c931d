// Package puzzles wires every puzzle variant together: one registry for the dispatcher and the
// target generation and verification entry points the host server uses.
package puzzles

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzles/combination"
	"heist/pkg/game/puzzles/detonation"
	"heist/pkg/game/puzzles/lockbank"
	"heist/pkg/game/puzzles/pattern"
	"heist/pkg/game/puzzles/timedbank"
	"heist/pkg/game/puzzles/vault"
	"heist/pkg/game/stage"
)

// NewRegistry returns a registry holding every variant and every stage key alias.
func NewRegistry() *puzzle.Registry {
	r := puzzle.NewRegistry()
	for t, ctor := range constructors {
		// Types are distinct map keys, so Register cannot fail here.
		_ = r.Register(t, ctor)
	}
	for key, t := range stage.Aliases() {
		r.Alias(key, t)
	}
	return r
}

var constructors = map[puzzle.Type]puzzle.Constructor{
	puzzle.TypeCombination: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return combination.New(s, c, o)
	},
	puzzle.TypePattern: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return pattern.New(s, c, o)
	},
	puzzle.TypePatternWalk: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return pattern.NewWalk(s, c, o)
	},
	puzzle.TypeLockBank: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return lockbank.New(s, c, o)
	},
	puzzle.TypeOrderedLocks: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return lockbank.NewOrdered(s, c, o)
	},
	puzzle.TypeTimedBank: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return timedbank.New(s, c, o)
	},
	puzzle.TypeVault: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return vault.New(s, c, o)
	},
	puzzle.TypeDetonation: func(s puzzle.Surface, c puzzle.Config, o puzzle.Options) puzzle.Widget {
		return detonation.New(s, c, o)
	},
}

// Generate draws a target for t and encodes it as widget Config data.
func Generate(t puzzle.Type, difficulty int, rng *rand.Rand) (json.RawMessage, error) {
	var target any
	switch t {
	case puzzle.TypeCombination:
		target = combination.Generate(rng, difficulty)
	case puzzle.TypePattern:
		target = pattern.Generate(rng, difficulty)
	case puzzle.TypePatternWalk:
		target = pattern.GenerateWalk(rng, difficulty)
	case puzzle.TypeLockBank:
		target = lockbank.Generate(rng, difficulty)
	case puzzle.TypeOrderedLocks:
		target = lockbank.GenerateOrdered(rng, difficulty)
	case puzzle.TypeTimedBank:
		target = timedbank.Generate(rng, difficulty)
	case puzzle.TypeVault:
		target = vault.Generate(rng, difficulty)
	case puzzle.TypeDetonation:
		target = detonation.Generate(rng, difficulty)
	default:
		return nil, fmt.Errorf("%w: %q", puzzle.ErrUnknownType, t)
	}
	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encode %s target: %w", t, err)
	}
	return data, nil
}

// Verify decodes a stored target and a submitted payload and runs the variant's check.
// allowedBypasses is how many locks the player may have skipped; only lock puzzles use it.
func Verify(t puzzle.Type, target, payload json.RawMessage, allowedBypasses int) (bool, error) {
	switch t {
	case puzzle.TypeCombination:
		return verify(target, payload, combination.Verify)
	case puzzle.TypePattern, puzzle.TypePatternWalk:
		return verify(target, payload, pattern.Verify)
	case puzzle.TypeLockBank, puzzle.TypeOrderedLocks:
		return verify(target, payload, func(tg lockbank.Target, p lockbank.Payload) bool {
			return lockbank.Verify(tg, p, allowedBypasses)
		})
	case puzzle.TypeTimedBank:
		return verify(target, payload, timedbank.Verify)
	case puzzle.TypeVault:
		return verify(target, payload, vault.Verify)
	case puzzle.TypeDetonation:
		return verify(target, payload, detonation.Verify)
	}
	return false, fmt.Errorf("%w: %q", puzzle.ErrUnknownType, t)
}

func verify[T, P any](target, payload json.RawMessage, check func(T, P) bool) (bool, error) {
	var (
		tg T
		p  P
	)
	if err := json.Unmarshal(target, &tg); err != nil {
		return false, fmt.Errorf("decode target: %w", err)
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, fmt.Errorf("%w: decode payload: %v", puzzle.ErrInvalidInput, err)
	}
	return check(tg, p), nil
}
