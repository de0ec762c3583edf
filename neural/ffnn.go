// Package neural provides the feedforward controllers that drive the walkers.
package neural

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// MutationSigma is the standard deviation of the Gaussian added to a
// mutated parameter.
const MutationSigma = 0.5

// Shape errors.
var (
	ErrInvalidArch = errors.New("layer sizes must be positive")
	ErrInputSize   = errors.New("observation length does not match input size")
	ErrShape       = errors.New("weight array length does not match architecture")
)

// Arch is the layer layout of a Controller.
type Arch struct {
	Inputs  int `json:"inputs"`
	Hidden  int `json:"hidden"`
	Outputs int `json:"outputs"`
}

// NumParams returns the number of weights and biases for the layout.
func (a Arch) NumParams() int {
	return a.Hidden*a.Inputs + a.Hidden +
		a.Hidden*a.Hidden + a.Hidden +
		a.Outputs*a.Hidden + a.Outputs
}

func (a Arch) validate() error {
	if a.Inputs <= 0 || a.Hidden <= 0 || a.Outputs <= 0 {
		return fmt.Errorf("%w: %d-%d-%d", ErrInvalidArch, a.Inputs, a.Hidden, a.Outputs)
	}
	return nil
}

// Controller is a three-layer perceptron:
// inputs -> hidden (ReLU) -> hidden (ReLU) -> outputs (tanh).
// A Controller is not safe for concurrent use; Infer reuses scratch buffers.
type Controller struct {
	arch Arch

	w1, w2, w3 *mat.Dense
	b1, b2, b3 *mat.VecDense

	// scratch
	in, h1, h2, out *mat.VecDense
}

// New creates a controller with He-normal weights and zero biases.
func New(rng *rand.Rand, inputs, hidden, outputs int) (*Controller, error) {
	arch := Arch{Inputs: inputs, Hidden: hidden, Outputs: outputs}
	if err := arch.validate(); err != nil {
		return nil, err
	}

	c := newZero(arch)
	heInit(rng, c.w1, inputs)
	heInit(rng, c.w2, hidden)
	heInit(rng, c.w3, hidden)
	return c, nil
}

func newZero(a Arch) *Controller {
	return &Controller{
		arch: a,
		w1:   mat.NewDense(a.Hidden, a.Inputs, nil),
		b1:   mat.NewVecDense(a.Hidden, nil),
		w2:   mat.NewDense(a.Hidden, a.Hidden, nil),
		b2:   mat.NewVecDense(a.Hidden, nil),
		w3:   mat.NewDense(a.Outputs, a.Hidden, nil),
		b3:   mat.NewVecDense(a.Outputs, nil),
		in:   mat.NewVecDense(a.Inputs, nil),
		h1:   mat.NewVecDense(a.Hidden, nil),
		h2:   mat.NewVecDense(a.Hidden, nil),
		out:  mat.NewVecDense(a.Outputs, nil),
	}
}

// heInit fills m with N(0, 2/fanIn) samples.
func heInit(rng *rand.Rand, m *mat.Dense, fanIn int) {
	scale := math.Sqrt(2.0 / float64(fanIn))
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
}

// Arch returns the controller's layer layout.
func (c *Controller) Arch() Arch {
	return c.arch
}

// NumParams returns the total number of weights and biases.
func (c *Controller) NumParams() int {
	return c.arch.NumParams()
}

// Infer maps an observation to an action in [-1, 1]^Outputs. Non-finite
// inputs are treated as 0 and non-finite outputs are replaced by 0.
// The result is a fresh slice owned by the caller.
func (c *Controller) Infer(obs []float64) ([]float64, error) {
	if len(obs) != c.arch.Inputs {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(obs), c.arch.Inputs)
	}

	in := c.in.RawVector().Data
	for i, v := range obs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		in[i] = v
	}

	c.h1.MulVec(c.w1, c.in)
	c.h1.AddVec(c.h1, c.b1)
	relu(c.h1)

	c.h2.MulVec(c.w2, c.h1)
	c.h2.AddVec(c.h2, c.b2)
	relu(c.h2)

	c.out.MulVec(c.w3, c.h2)
	c.out.AddVec(c.out, c.b3)

	action := make([]float64, c.arch.Outputs)
	for i, v := range c.out.RawVector().Data {
		action[i] = squash(v)
	}
	return action, nil
}

func relu(v *mat.VecDense) {
	data := v.RawVector().Data
	for i, x := range data {
		if x < 0 || math.IsNaN(x) {
			data[i] = 0
		}
	}
}

// squash is tanh with non-finite results mapped to 0.
func squash(x float64) float64 {
	y := math.Tanh(x)
	if math.IsNaN(y) {
		return 0
	}
	return math.Max(-1, math.Min(1, y))
}

// params returns the controller's parameter arrays in serialization order.
func (c *Controller) params() [][]float64 {
	return [][]float64{
		c.w1.RawMatrix().Data,
		c.b1.RawVector().Data,
		c.w2.RawMatrix().Data,
		c.b2.RawVector().Data,
		c.w3.RawMatrix().Data,
		c.b3.RawVector().Data,
	}
}

// Mutate perturbs each weight and bias independently: with probability
// rate the parameter gets N(0, MutationSigma) added. It returns how many
// parameters changed.
func (c *Controller) Mutate(rng *rand.Rand, rate float64) int {
	mutated := 0
	for _, p := range c.params() {
		for i := range p {
			if rng.Float64() < rate {
				p[i] += rng.NormFloat64() * MutationSigma
				mutated++
			}
		}
	}
	return mutated
}

// Clone returns a deep copy.
func (c *Controller) Clone() *Controller {
	clone := newZero(c.arch)
	dst := clone.params()
	for i, p := range c.params() {
		copy(dst[i], p)
	}
	return clone
}

// Weights holds flattened controller parameters for serialization.
// Matrices are row-major with one row per output neuron.
type Weights struct {
	Arch
	W1 []float64 `json:"w1"` // [Hidden * Inputs]
	B1 []float64 `json:"b1"` // [Hidden]
	W2 []float64 `json:"w2"` // [Hidden * Hidden]
	B2 []float64 `json:"b2"` // [Hidden]
	W3 []float64 `json:"w3"` // [Outputs * Hidden]
	B3 []float64 `json:"b3"` // [Outputs]
}

func (w *Weights) arrays() [][]float64 {
	return [][]float64{w.W1, w.B1, w.W2, w.B2, w.W3, w.B3}
}

// MarshalWeights copies the controller parameters out.
func (c *Controller) MarshalWeights() Weights {
	p := c.params()
	clone := func(s []float64) []float64 {
		out := make([]float64, len(s))
		copy(out, s)
		return out
	}
	return Weights{
		Arch: c.arch,
		W1:   clone(p[0]),
		B1:   clone(p[1]),
		W2:   clone(p[2]),
		B2:   clone(p[3]),
		W3:   clone(p[4]),
		B3:   clone(p[5]),
	}
}

// FromWeights builds a controller from serialized parameters. Every array
// must match the declared layout exactly.
func FromWeights(w Weights) (*Controller, error) {
	if err := w.Arch.validate(); err != nil {
		return nil, err
	}
	c := newZero(w.Arch)
	dst := c.params()
	names := [...]string{"w1", "b1", "w2", "b2", "w3", "b3"}
	for i, src := range w.arrays() {
		if len(src) != len(dst[i]) {
			return nil, fmt.Errorf("%w: %s has %d values, want %d", ErrShape, names[i], len(src), len(dst[i]))
		}
		copy(dst[i], src)
	}
	return c, nil
}

// Serialize encodes the controller as JSON. float64 values round-trip
// exactly, so a deserialized controller infers bit-identical actions.
func (c *Controller) Serialize() ([]byte, error) {
	data, err := json.Marshal(c.MarshalWeights())
	if err != nil {
		return nil, fmt.Errorf("marshaling weights: %w", err)
	}
	return data, nil
}

// Deserialize decodes a controller produced by Serialize.
func Deserialize(data []byte) (*Controller, error) {
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshaling weights: %w", err)
	}
	return FromWeights(w)
}
