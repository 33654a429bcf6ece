package syncer

import (
	"math/rand"
	"sync"
	"time"
)

func newBackoffTimeout(startingTimeout time.Duration, maxTimeout time.Duration, increaseFactor int) *backoff {
	return &backoff{
		max:          maxTimeout,
		current:      startingTimeout,
		factor:       increaseFactor,
		backoffMutex: &sync.Mutex{},
	}
}

type backoff struct {
	max          time.Duration
	current      time.Duration
	factor       int
	backoffMutex *sync.Mutex
}

func (b *backoff) increaseTimeout() {
	b.backoffMutex.Lock()
	defer b.backoffMutex.Unlock()
	b.current = b.current * time.Duration(b.factor)
	if b.current > b.max {
		b.current = b.max
	}
}

// sleep - waits the current timeout with up to 10% jitter, so a burst of
// failing tables does not retry in lockstep
func (b *backoff) sleep() {
	timeout := b.getCurrentTimeout()
	jitter := time.Duration(rand.Int63n(int64(timeout)/10 + 1))
	time.Sleep(timeout + jitter)
}

func (b *backoff) getCurrentTimeout() time.Duration {
	b.backoffMutex.Lock()
	defer b.backoffMutex.Unlock()
	return b.current
}
