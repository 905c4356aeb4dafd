package internal

import "time"

// NewBackoff returns a Backoff that starts waiting startWait and doubles
// its wait on every miss up to maxWait.
func NewBackoff(startWait, maxWait time.Duration) Backoff {
	if startWait <= 0 {
		startWait = time.Microsecond
	}
	if maxWait < startWait {
		maxWait = startWait
	}
	return Backoff{
		wait:      startWait,
		maxWait:   maxWait,
		startWait: startWait,
	}
}

// A Backoff with a non-zero MaxWait is ready for use.
type Backoff struct {
	// wait defines the amount of time that Miss will wait on next call.
	wait time.Duration
	// Maximum allowable value for Wait.
	maxWait time.Duration
	// startWait is the intial Wait value, as well as the value that Wait takes after a call to Hit.
	startWait time.Duration
}

// Hit sets eb.Wait to the StartWait value.
func (eb *Backoff) Hit() {
	if eb.maxWait == 0 {
		panic("MaxWait cannot be zero")
	}
	eb.wait = eb.startWait
}

// Miss sleeps for eb.Wait and increases eb.Wait exponentially.
func (eb *Backoff) Miss() {
	if eb.maxWait == 0 {
		panic("MaxWait cannot be zero")
	}
	time.Sleep(eb.wait)
	eb.wait *= 2
	if eb.wait > eb.maxWait {
		eb.wait = eb.maxWait
	}
}

// Wait returns the duration the next call to Miss will sleep for.
func (eb *Backoff) Wait() time.Duration { return eb.wait }
