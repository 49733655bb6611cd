package worker

import (
	"sync"

	"github.com/rs/zerolog"
)

// Pool runs tasks on a fixed set of goroutines fed from one FIFO queue.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func()
	stopping bool
	wg       sync.WaitGroup
	log      zerolog.Logger

	// onDepth, when set, observes the queue depth after every change.
	onDepth func(int)
}

// NewPool starts size workers. A size below 1 is raised to 1.
func NewPool(size int, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{log: log.With().Str("component", "worker_pool").Logger()}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run(i)
	}

	p.log.Info().Int("workers", size).Msg("Worker pool started")
	return p
}

// ObserveDepth registers fn to receive the queue depth whenever it changes.
func (p *Pool) ObserveDepth(fn func(int)) {
	p.mu.Lock()
	p.onDepth = fn
	p.mu.Unlock()
}

// Enqueue appends a task. After Shutdown has begun the task is dropped and
// Enqueue returns false.
func (p *Pool) Enqueue(task func()) bool {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		p.log.Debug().Msg("Task dropped, pool is shutting down")
		return false
	}
	p.queue = append(p.queue, task)
	p.depthChanged()
	p.mu.Unlock()

	p.cond.Signal()
	return true
}

// Len returns the number of queued tasks.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Shutdown stops accepting tasks, lets the workers drain the queue and waits
// for them to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	already := p.stopping
	p.stopping = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()

	if !already {
		p.log.Info().Msg("Worker pool stopped")
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopping {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			// Stopping and drained.
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.depthChanged()
		p.mu.Unlock()

		p.execute(id, task)
	}
}

func (p *Pool) execute(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("Task panicked")
		}
	}()
	task()
}

// depthChanged must be called with p.mu held.
func (p *Pool) depthChanged() {
	if p.onDepth != nil {
		p.onDepth(len(p.queue))
	}
}
