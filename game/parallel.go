package game

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum population to use parallel inference.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	agents     []*Agent
	start, end int
}

// inferPool runs controller inference for a population on persistent
// workers. Observation and actuation stay on the caller's goroutine.
type inferPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

// newInferPool sizes the pool; workers <= 0 means GOMAXPROCS.
func newInferPool(workers int) *inferPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &inferPool{numWorkers: workers}
}

// startWorkers launches persistent worker goroutines.
func (p *inferPool) startWorkers() {
	if p.running {
		return
	}
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *inferPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

func (p *inferPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			for _, a := range chunk.agents[chunk.start:chunk.end] {
				a.think()
			}
			p.doneChan <- struct{}{}
		}
	}
}

// step runs one observe, infer, act cycle for every agent. Inference is
// spread across the workers when the population is large enough; the
// result is identical to stepping each agent in order.
func (p *inferPool) step(agents []*Agent, maxMotorVelocity float64, threshold int) {
	n := len(agents)
	if n < threshold || p.numWorkers < 2 {
		for _, a := range agents {
			a.Step(maxMotorVelocity)
		}
		return
	}

	for _, a := range agents {
		a.observe()
	}

	p.startWorkers()
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for start := 0; start < n; start += chunkSize {
		p.workChan <- workChunk{agents: agents, start: start, end: min(start+chunkSize, n)}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}

	for _, a := range agents {
		a.act(maxMotorVelocity)
	}
}
