package opencv

import (
	"runtime"
	"sync"
)

// Pool is a simple pool of worker slots bounding how many trackers are
// updated in parallel for one frame
type Pool struct {
	// slots available to run work
	slots chan struct{}
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a new worker pool, a size below 1 uses the number of CPUs
func NewPool(size int) *Pool {

	if size < 1 {
		size = runtime.NumCPU()
	}

	p := &Pool{
		slots: make(chan struct{}, size),
		size:  size,
	}

	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}

	return p
}

// Size returns the number of worker slots
func (p *Pool) Size() int {
	return p.size
}

// Run executes every job using at most Size goroutines at a time and waits
// for them all to finish
func (p *Pool) Run(jobs []func()) {

	var wg sync.WaitGroup

	for _, job := range jobs {
		<-p.slots
		wg.Add(1)

		go func(job func()) {
			defer func() {
				p.slots <- struct{}{}
				wg.Done()
			}()
			job()
		}(job)
	}

	wg.Wait()
}

// Close the pool
func (p *Pool) Close() {
	p.close.Do(func() {
		// drain slots so no further work starts
		for i := 0; i < p.size; i++ {
			<-p.slots
		}
	})
}
