package neat

import (
	"math/rand"
	"time"
)

// rng drives every stochastic decision in the engine. Evolution runs on a
// single goroutine; evaluator workers never touch it.
var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// Seed makes subsequent evolution deterministic for a given seed.
func Seed(seed int64) {
	rng = rand.New(rand.NewSource(seed))
}
