// Package gym provides simulated control environments with a small,
// Gymnasium-like stepping interface.
package gym

// Space describes the shape of an environment's observations or actions.
// Discrete spaces enumerate N actions; continuous spaces define a box with
// per-dimension bounds symmetric about zero.
type Space struct {
	Discrete bool
	N        int       // Number of actions when Discrete.
	Shape    []int     // Dimensions when continuous.
	High     []float64 // Per-dimension upper bounds when continuous; lower bounds are -High.
}

// Size returns the flat dimensionality of the space.
func (s Space) Size() int {
	if s.Discrete {
		return s.N
	}
	size := 1
	for _, d := range s.Shape {
		size *= d
	}
	return size
}

// Action is either a discrete choice or a continuous vector, matching the
// environment's action space.
type Action struct {
	Discrete int
	Box      []float64
}

// StepResult is the outcome of advancing an environment by one action.
type StepResult struct {
	Observation []float64
	Reward      float64
	Terminated  bool // Episode reached a terminal state.
	Truncated   bool // Episode was cut off by a time limit.
}

// Env is a simulated episodic environment. Implementations are not safe for
// concurrent use; create one instance per goroutine.
type Env interface {
	// Name returns the registered environment name.
	Name() string

	// ObservationSpace describes the observations returned by Reset and Step.
	ObservationSpace() Space

	// ActionSpace describes the actions accepted by Step.
	ActionSpace() Space

	// Reset starts a new episode seeded with the given value and returns the
	// initial observation.
	Reset(seed int64) ([]float64, error)

	// Step advances the simulation by one action.
	Step(action Action) (StepResult, error)

	// Render returns a human-readable depiction of the current state.
	Render() string

	// Close releases any resources held by the environment.
	Close() error
}
