package cache

import "time"

// Sweepable is any cache that can drop its expired entries.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically sweeps registered caches in the background.
type Sweeper struct {
	caches []Sweepable
	stop   chan struct{}
	done   chan struct{}
}

// NewSweeper creates an idle sweeper. Register caches and then Start it.
func NewSweeper() *Sweeper {
	return &Sweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep rotation.
func (s *Sweeper) Register(c Sweepable) {
	s.caches = append(s.caches, c)
}

// Start begins sweeping at the given interval.
func (s *Sweeper) Start(interval time.Duration) {
	go s.run(interval)
}

func (s *Sweeper) run(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, c := range s.caches {
				c.Sweep()
			}
		case <-s.stop:
			return
		}
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
