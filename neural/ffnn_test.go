package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func newTestController(t *testing.T, seed int64, inputs, hidden, outputs int) *Controller {
	t.Helper()
	c, err := New(rand.New(rand.NewSource(seed)), inputs, hidden, outputs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewDimensions(t *testing.T) {
	c := newTestController(t, 42, 30, 128, 4)

	want := 128*30 + 128 + 128*128 + 128 + 4*128 + 4
	if c.NumParams() != want {
		t.Errorf("NumParams() = %d, want %d", c.NumParams(), want)
	}
	if c.Arch() != (Arch{Inputs: 30, Hidden: 128, Outputs: 4}) {
		t.Errorf("Arch() = %+v", c.Arch())
	}

	w := c.MarshalWeights()
	for i, b := range [][]float64{w.B1, w.B2, w.B3} {
		for _, v := range b {
			if v != 0 {
				t.Errorf("bias layer %d not zero-initialized", i+1)
				break
			}
		}
	}
}

func TestNewRejectsInvalidArch(t *testing.T) {
	tests := []struct {
		name                    string
		inputs, hidden, outputs int
	}{
		{"zero inputs", 0, 8, 4},
		{"zero hidden", 30, 0, 4},
		{"negative outputs", 30, 8, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(rand.New(rand.NewSource(1)), tt.inputs, tt.hidden, tt.outputs)
			if !errors.Is(err, ErrInvalidArch) {
				t.Errorf("New() error = %v, want ErrInvalidArch", err)
			}
		})
	}
}

func TestInferRangeAndDeterminism(t *testing.T) {
	c := newTestController(t, 42, 30, 32, 4)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		obs := make([]float64, 30)
		for i := range obs {
			obs[i] = rng.NormFloat64() * 100
		}

		a1, err := c.Infer(obs)
		if err != nil {
			t.Fatal(err)
		}
		a2, _ := c.Infer(obs)

		if len(a1) != 4 {
			t.Fatalf("len(action) = %d, want 4", len(a1))
		}
		for i := range a1 {
			if a1[i] < -1 || a1[i] > 1 || math.IsNaN(a1[i]) {
				t.Errorf("action[%d] = %v outside [-1,1]", i, a1[i])
			}
			if a1[i] != a2[i] {
				t.Errorf("Infer not deterministic: %v vs %v", a1[i], a2[i])
			}
		}
	}
}

func TestInferSanitizesNonFinite(t *testing.T) {
	c := newTestController(t, 42, 4, 8, 2)

	clean, err := c.Infer([]float64{0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	dirty, err := c.Infer([]float64{math.NaN(), math.Inf(1), math.Inf(-1), 0})
	if err != nil {
		t.Fatal(err)
	}
	for i := range clean {
		if clean[i] != dirty[i] {
			t.Errorf("action[%d] = %v with non-finite input, want %v", i, dirty[i], clean[i])
		}
	}
}

func TestInferRejectsWrongLength(t *testing.T) {
	c := newTestController(t, 42, 30, 8, 4)
	if _, err := c.Infer(make([]float64, 29)); !errors.Is(err, ErrInputSize) {
		t.Errorf("Infer() error = %v, want ErrInputSize", err)
	}
}

func TestSquash(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Inf(1), 1},
		{math.Inf(-1), -1},
		{math.NaN(), 0},
		{1e308, 1},
	}
	for _, tt := range tests {
		if got := squash(tt.in); got != tt.want {
			t.Errorf("squash(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMutateRateZeroIsIdentity(t *testing.T) {
	c := newTestController(t, 42, 30, 16, 4)
	before := c.MarshalWeights()

	if n := c.Mutate(rand.New(rand.NewSource(1)), 0); n != 0 {
		t.Errorf("Mutate(0) = %d, want 0", n)
	}
	assertWeightsEqual(t, before, c.MarshalWeights())
}

func TestMutateRateOneTouchesEverything(t *testing.T) {
	c := newTestController(t, 42, 30, 16, 4)
	before := c.MarshalWeights()

	n := c.Mutate(rand.New(rand.NewSource(1)), 1)
	if n != c.NumParams() {
		t.Errorf("Mutate(1) = %d, want %d", n, c.NumParams())
	}

	after := c.MarshalWeights()
	changed := 0
	ba, aa := before.arrays(), after.arrays()
	for i := range ba {
		for j := range ba[i] {
			if ba[i][j] != aa[i][j] {
				changed++
			}
		}
	}
	if changed != c.NumParams() {
		t.Errorf("changed %d params, want %d", changed, c.NumParams())
	}
}

func TestMutateRateStatistics(t *testing.T) {
	const (
		rate   = 0.05
		trials = 20
	)
	c := newTestController(t, 42, 30, 84, 4)
	n := float64(c.NumParams())
	rng := rand.New(rand.NewSource(99))

	inRange := 0
	total := 0
	for trial := 0; trial < trials; trial++ {
		clone := c.Clone()
		got := clone.Mutate(rng, rate)
		total += got
		if f := float64(got); f >= 0.045*n && f <= 0.055*n {
			inRange++
		}
	}

	if inRange < 17 {
		t.Errorf("%d of %d trials within [4.5%%, 5.5%%] of %v params, want >= 17", inRange, trials, n)
	}
	mean := float64(total) / trials / n
	if mean < 0.045 || mean > 0.055 {
		t.Errorf("mean mutated fraction = %v, want ~%v", mean, rate)
	}
}

func TestMutateDeltaScale(t *testing.T) {
	c := newTestController(t, 42, 30, 64, 4)
	before := c.MarshalWeights()
	c.Mutate(rand.New(rand.NewSource(3)), 1)
	after := c.MarshalWeights()

	var sum, sumSq float64
	var count int
	ba, aa := before.arrays(), after.arrays()
	for i := range ba {
		for j := range ba[i] {
			d := aa[i][j] - ba[i][j]
			sum += d
			sumSq += d * d
			count++
		}
	}
	mean := sum / float64(count)
	std := math.Sqrt(sumSq/float64(count) - mean*mean)
	if math.Abs(std-MutationSigma) > 0.02 {
		t.Errorf("delta std = %v, want ~%v", std, MutationSigma)
	}
	if math.Abs(mean) > 0.02 {
		t.Errorf("delta mean = %v, want ~0", mean)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := newTestController(t, 42, 30, 16, 4)
	clone := c.Clone()
	assertWeightsEqual(t, c.MarshalWeights(), clone.MarshalWeights())

	clone.Mutate(rand.New(rand.NewSource(5)), 1)
	if c.MarshalWeights().W1[0] == clone.MarshalWeights().W1[0] {
		t.Error("mutating clone changed original")
	}
}

func TestSerializeRoundTripIsBitExact(t *testing.T) {
	c := newTestController(t, 42, 30, 32, 4)
	c.Mutate(rand.New(rand.NewSource(11)), 0.3)

	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	assertWeightsEqual(t, c.MarshalWeights(), restored.MarshalWeights())

	rng := rand.New(rand.NewSource(13))
	obs := make([]float64, 30)
	for i := range obs {
		obs[i] = rng.Float64()
	}
	want, _ := c.Infer(obs)
	got, _ := restored.Infer(obs)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action[%d] = %v after round trip, want %v", i, got[i], want[i])
		}
	}
}

func TestFromWeightsRejectsShapeMismatch(t *testing.T) {
	w := newTestController(t, 42, 30, 16, 4).MarshalWeights()
	w.B2 = w.B2[:len(w.B2)-1]

	if _, err := FromWeights(w); !errors.Is(err, ErrShape) {
		t.Errorf("FromWeights() error = %v, want ErrShape", err)
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	if _, err := Deserialize([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Deserialize([]byte(`{"inputs":0,"hidden":1,"outputs":1}`)); !errors.Is(err, ErrInvalidArch) {
		t.Errorf("Deserialize() error = %v, want ErrInvalidArch", err)
	}
}

func assertWeightsEqual(t *testing.T, a, b Weights) {
	t.Helper()
	if a.Arch != b.Arch {
		t.Fatalf("arch %+v != %+v", a.Arch, b.Arch)
	}
	aa, ba := a.arrays(), b.arrays()
	for i := range aa {
		if len(aa[i]) != len(ba[i]) {
			t.Fatalf("array %d length %d != %d", i, len(aa[i]), len(ba[i]))
		}
		for j := range aa[i] {
			if aa[i][j] != ba[i][j] {
				t.Fatalf("array %d index %d: %v != %v", i, j, aa[i][j], ba[i][j])
			}
		}
	}
}
