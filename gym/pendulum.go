package gym

import (
	"fmt"
	"math"
	"math/rand"
)

// Pendulum swings a free pendulum toward the upright position using a
// bounded continuous torque. Reward is always negative, penalizing angular
// distance from upright, angular velocity and applied torque; episodes
// truncate after 200 steps.
type Pendulum struct {
	maxSpeed  float64
	maxTorque float64
	dt        float64
	g         float64
	m         float64
	l         float64
	maxSteps  int

	theta    float64
	thetaDot float64
	steps    int
	done     bool
	rng      *rand.Rand
}

// NewPendulum creates a Pendulum environment with standard parameters.
func NewPendulum() *Pendulum {
	return &Pendulum{
		maxSpeed:  8.0,
		maxTorque: 2.0,
		dt:        0.05,
		g:         10.0,
		m:         1.0,
		l:         1.0,
		maxSteps:  200,
	}
}

func (e *Pendulum) Name() string { return "Pendulum-v1" }

func (e *Pendulum) ObservationSpace() Space {
	return Space{
		Shape: []int{3},
		High:  []float64{1.0, 1.0, e.maxSpeed},
	}
}

func (e *Pendulum) ActionSpace() Space {
	return Space{
		Shape: []int{1},
		High:  []float64{e.maxTorque},
	}
}

func (e *Pendulum) Reset(seed int64) ([]float64, error) {
	e.rng = rand.New(rand.NewSource(seed))
	e.theta = e.rng.Float64()*2*math.Pi - math.Pi
	e.thetaDot = e.rng.Float64()*2 - 1
	e.steps = 0
	e.done = false
	return e.observation(), nil
}

func (e *Pendulum) Step(action Action) (StepResult, error) {
	if e.rng == nil {
		return StepResult{}, fmt.Errorf("pendulum: Step called before Reset")
	}
	if e.done {
		return StepResult{}, fmt.Errorf("pendulum: Step called on finished episode")
	}
	if len(action.Box) != 1 {
		return StepResult{}, fmt.Errorf("pendulum: expected 1 action dimension, got %d", len(action.Box))
	}

	torque := action.Box[0]
	if torque > e.maxTorque {
		torque = e.maxTorque
	} else if torque < -e.maxTorque {
		torque = -e.maxTorque
	}

	angle := angleNormalize(e.theta)
	cost := angle*angle + 0.1*e.thetaDot*e.thetaDot + 0.001*torque*torque

	thetaDot := e.thetaDot +
		(3*e.g/(2*e.l)*math.Sin(e.theta)+3.0/(e.m*e.l*e.l)*torque)*e.dt
	if thetaDot > e.maxSpeed {
		thetaDot = e.maxSpeed
	} else if thetaDot < -e.maxSpeed {
		thetaDot = -e.maxSpeed
	}
	e.theta += thetaDot * e.dt
	e.thetaDot = thetaDot
	e.steps++

	truncated := e.steps >= e.maxSteps
	e.done = truncated

	return StepResult{
		Observation: e.observation(),
		Reward:      -cost,
		Truncated:   truncated,
	}, nil
}

func (e *Pendulum) Render() string {
	return fmt.Sprintf("theta=%+.3f thetaDot=%+.3f", angleNormalize(e.theta), e.thetaDot)
}

func (e *Pendulum) Close() error { return nil }

func (e *Pendulum) observation() []float64 {
	return []float64{math.Cos(e.theta), math.Sin(e.theta), e.thetaDot}
}

// angleNormalize maps an angle into [-pi, pi).
func angleNormalize(x float64) float64 {
	m := math.Mod(x+math.Pi, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m - math.Pi
}
