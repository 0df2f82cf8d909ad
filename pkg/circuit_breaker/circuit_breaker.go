package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpenCB = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(service func() error) error
	State() Status
	Reset()
}

type circuitBreaker struct {
	mu    sync.Mutex
	state Status

	// window holds the outcome (true = failed) of the last len(window) calls.
	window []bool
	pos    int
	fails  int

	// failureRatio of the window at which the breaker opens.
	failureRatio float64
	// openTimeout is how long an open breaker rejects calls before probing.
	openTimeout time.Duration
	openedAt    time.Time

	// recoveryRequests consecutive successes in half-open close the breaker.
	recoveryRequests int
	successCount     int

	now func() time.Time
}

func New(recordLength int, timeout time.Duration, percentile float64, recoveryRequests int) CircuitBreaker {
	if recordLength <= 0 {
		recordLength = 1
	}
	return &circuitBreaker{
		state:            Closed,
		window:           make([]bool, recordLength),
		failureRatio:     percentile,
		openTimeout:      timeout,
		recoveryRequests: recoveryRequests,
		now:              time.Now,
	}
}

func (cb *circuitBreaker) Call(service func() error) error {
	if !cb.allow() {
		return ErrOpenCB
	}
	err := service()
	cb.record(err != nil)
	return err
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != Open {
		return true
	}
	if cb.now().Sub(cb.openedAt) <= cb.openTimeout {
		return false
	}
	cb.state = HalfOpen
	cb.successCount = 0
	return true
}

func (cb *circuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.window[cb.pos] {
		cb.fails--
	}
	cb.window[cb.pos] = failed
	if failed {
		cb.fails++
	}
	cb.pos = (cb.pos + 1) % len(cb.window)

	switch cb.state {
	case HalfOpen:
		if failed {
			cb.trip()
			return
		}
		cb.successCount++
		if cb.successCount >= cb.recoveryRequests {
			cb.reset()
		}
	case Closed:
		if float64(cb.fails)/float64(len(cb.window)) >= cb.failureRatio {
			cb.trip()
		}
	}
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successCount = 0
	cb.openedAt = cb.now()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.fails = 0
	cb.pos = 0
	cb.successCount = 0
	cb.state = Closed
}
