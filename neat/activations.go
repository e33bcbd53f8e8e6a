package neat

import (
	"fmt"
	"math"
)

// ActivationType is the signature shared by all node activation functions.
type ActivationType func(x float64) float64

// ActivationFunctions maps function names to implementations so that
// configuration can refer to activations by name.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"abs":      Absolute,
	"absolute": Absolute,
	"sin":      Sine,
	"sine":     Sine,
	"cos":      Cosine,
	"cosine":   Cosine,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the steepened logistic sigmoid used by NEAT (k = 4.9).
func Sigmoid(x float64) float64 {
	x = clamp(x, -60.0, 60.0)
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

func Tanh(x float64) float64 {
	return math.Tanh(clamp(x, -60.0, 60.0))
}

func ReLU(x float64) float64 {
	return math.Max(0, x)
}

func Identity(x float64) float64 {
	return x
}

// Clamped limits the output to [-1, 1].
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

func Gaussian(x float64) float64 {
	x = clamp(x, -3.4, 3.4)
	return math.Exp(-5.0 * x * x)
}

func Absolute(x float64) float64 {
	return math.Abs(x)
}

func Sine(x float64) float64 {
	return math.Sin(x)
}

func Cosine(x float64) float64 {
	return math.Cos(x)
}

func Inv(x float64) float64 {
	if x == 0.0 {
		return 0.0
	}
	return 1.0 / x
}

// Log computes ln(max(eps, x)) to stay defined for non-positive inputs.
func Log(x float64) float64 {
	return math.Log(math.Max(1e-7, x))
}

func Exp(x float64) float64 {
	return math.Exp(clamp(x, -60.0, 60.0))
}

// Hat is a triangular pulse centered at 0.
func Hat(x float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(x))
}

func Square(x float64) float64 {
	return x * x
}

func Cube(x float64) float64 {
	return x * x * x
}
