package gym

import (
	"fmt"
	"math"
	"math/rand"
)

// CartPole balances a pole on a cart driven left or right by a fixed force.
// Physics and thresholds follow the classic cart-pole control problem: the
// episode ends when the pole tips past 12 degrees, the cart leaves the
// track, or 500 steps elapse.
type CartPole struct {
	gravity  float64
	massCart float64
	massPole float64
	length   float64 // Half the pole's length.
	forceMag float64
	tau      float64 // Seconds between state updates.
	thetaMax float64
	xMax     float64
	maxSteps int

	state [4]float64 // x, xDot, theta, thetaDot
	steps int
	done  bool
	rng   *rand.Rand
}

// NewCartPole creates a CartPole environment with standard parameters.
func NewCartPole() *CartPole {
	return &CartPole{
		gravity:  9.8,
		massCart: 1.0,
		massPole: 0.1,
		length:   0.5,
		forceMag: 10.0,
		tau:      0.02,
		thetaMax: 12 * 2 * math.Pi / 360,
		xMax:     2.4,
		maxSteps: 500,
	}
}

func (e *CartPole) Name() string { return "CartPole-v1" }

func (e *CartPole) ObservationSpace() Space {
	return Space{
		Shape: []int{4},
		High: []float64{
			e.xMax * 2,
			math.MaxFloat64,
			e.thetaMax * 2,
			math.MaxFloat64,
		},
	}
}

func (e *CartPole) ActionSpace() Space {
	return Space{Discrete: true, N: 2}
}

func (e *CartPole) Reset(seed int64) ([]float64, error) {
	e.rng = rand.New(rand.NewSource(seed))
	for i := range e.state {
		e.state[i] = e.rng.Float64()*0.1 - 0.05
	}
	e.steps = 0
	e.done = false
	return e.observation(), nil
}

func (e *CartPole) Step(action Action) (StepResult, error) {
	if e.rng == nil {
		return StepResult{}, fmt.Errorf("cartpole: Step called before Reset")
	}
	if e.done {
		return StepResult{}, fmt.Errorf("cartpole: Step called on finished episode")
	}
	if action.Discrete < 0 || action.Discrete > 1 {
		return StepResult{}, fmt.Errorf("cartpole: invalid action %d", action.Discrete)
	}

	force := -e.forceMag
	if action.Discrete == 1 {
		force = e.forceMag
	}

	x, xDot, theta, thetaDot := e.state[0], e.state[1], e.state[2], e.state[3]
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	totalMass := e.massCart + e.massPole
	poleMassLength := e.massPole * e.length
	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (e.gravity*sinTheta - cosTheta*temp) /
		(e.length * (4.0/3.0 - e.massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	// Semi-implicit Euler integration.
	x += e.tau * xDot
	xDot += e.tau * xAcc
	theta += e.tau * thetaDot
	thetaDot += e.tau * thetaAcc
	e.state = [4]float64{x, xDot, theta, thetaDot}
	e.steps++

	terminated := x < -e.xMax || x > e.xMax || theta < -e.thetaMax || theta > e.thetaMax
	truncated := !terminated && e.steps >= e.maxSteps
	e.done = terminated || truncated

	return StepResult{
		Observation: e.observation(),
		Reward:      1.0,
		Terminated:  terminated,
		Truncated:   truncated,
	}, nil
}

func (e *CartPole) Render() string {
	return fmt.Sprintf("x=%+.3f theta=%+.3f", e.state[0], e.state[2])
}

func (e *CartPole) Close() error { return nil }

func (e *CartPole) observation() []float64 {
	return []float64{e.state[0], e.state[1], e.state[2], e.state[3]}
}
