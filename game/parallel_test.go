package game

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/physics"
)

// stepWorld builds a population, steps it n times with step, and returns
// the final motor rates.
func stepWorld(t *testing.T, n int, step func([]*Agent, float64)) [][]float64 {
	t.Helper()
	cfg := config.Default()
	w := physics.NewWorld(cfg.Physics.Gravity, cfg.Derived.GroundY)
	p, err := buildPopulation(w, cfg, testControllers(t, 9))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	for i := 0; i < n; i++ {
		step(p.Agents(), cfg.Physics.MaxMotorVelocity)
		w.Step(cfg.Physics.Step)
	}
	rates := make([][]float64, p.Len())
	for i, a := range p.Agents() {
		rates[i] = a.Body.MotorRates()
	}
	return rates
}

func TestInferPoolMatchesSerial(t *testing.T) {
	serial := stepWorld(t, 20, func(agents []*Agent, v float64) {
		for _, a := range agents {
			a.Step(v)
		}
	})

	pool := newInferPool(4)
	defer pool.stop()
	parallel := stepWorld(t, 20, func(agents []*Agent, v float64) {
		pool.step(agents, v, 0)
	})

	if !pool.running {
		t.Error("workers never started")
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel stepping diverged from serial:\n%v\n%v", serial, parallel)
	}
}

func TestInferPoolStopIdempotent(t *testing.T) {
	pool := newInferPool(2)
	pool.stop()
	pool.startWorkers()
	pool.stop()
	pool.stop()
	if pool.running {
		t.Error("pool still running after stop")
	}
}
