package core

import "time"

const defaultSmoothing = 0.2

// ThroughputEstimator turns a monotonically increasing byte counter into a
// smoothed rate. It is meant to be fed from a single goroutine.
type ThroughputEstimator struct {
	alpha     float64
	lastValue int64
	lastTime  time.Time
	rate      float64
	samples   int
}

// NewThroughputEstimator returns an estimator using an exponential moving average.
func NewThroughputEstimator() *ThroughputEstimator {
	return &ThroughputEstimator{alpha: defaultSmoothing}
}

// Feed records the current counter value and returns the rate in bytes per second.
func (e *ThroughputEstimator) Feed(total int64) float64 {
	return e.FeedAt(total, time.Now())
}

// FeedAt is Feed with an explicit sample time.
func (e *ThroughputEstimator) FeedAt(total int64, now time.Time) float64 {
	if e.samples == 0 {
		e.lastValue, e.lastTime = total, now
		e.samples++
		return 0
	}

	elapsed := now.Sub(e.lastTime).Seconds()
	if elapsed <= 0 {
		return e.rate
	}

	instant := float64(total-e.lastValue) / elapsed
	if instant < 0 {
		instant = 0
	}

	if e.samples == 1 {
		e.rate = instant
	} else {
		e.rate = e.alpha*instant + (1-e.alpha)*e.rate
	}

	e.lastValue, e.lastTime = total, now
	e.samples++
	return e.rate
}

// Rate returns the last computed rate without sampling.
func (e *ThroughputEstimator) Rate() float64 {
	return e.rate
}
