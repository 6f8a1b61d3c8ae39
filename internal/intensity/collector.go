// Package intensity provides carbon-intensity values for task intervals,
// either as a static configured number or as a time-weighted average over
// periodically sampled readings.
package intensity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenlab/co2footprint/internal/telemetry"
	"github.com/greenlab/co2footprint/internal/trace"
)

// Sample is the data contract returned by the external carbon-intensity API.
type Sample struct {
	// CarbonIntensity is the reading in gCO2eq/kWh.
	CarbonIntensity float64 `json:"carbonIntensity"`

	// Datetime is the reading's timestamp (ISO-8601 on the wire).
	Datetime time.Time `json:"datetime"`
}

// Fetcher retrieves one carbon-intensity sample. Implementations own all
// network plumbing; the collector only consumes the data contract.
type Fetcher interface {
	Fetch(ctx context.Context) (Sample, error)
}

// Collector accumulates timestamped carbon-intensity samples from a single
// periodic background task and answers time-weighted average queries from
// arbitrary goroutines. Lifecycle: Idle after construction, Running after
// Start, Stopped after Stop. Start and Stop are idempotent; Stop retains
// every sample already inserted.
type Collector struct {
	fetcher  Fetcher
	interval time.Duration
	fallback float64
	logger   zerolog.Logger

	mu      sync.RWMutex
	samples map[int64]float64 // unix-milli timestamp -> gCO2eq/kWh

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	stop      chan struct{}
	done      chan struct{}

	// failed dedups fetch-failure warnings by error text.
	failed sync.Map
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	// Interval is the sampling period. Defaults to one hour.
	Interval time.Duration

	// Fallback is the intensity substituted when a fetch fails, keeping
	// the time series populated for weighted averaging.
	Fallback float64

	// Logger receives fetch-failure warnings.
	Logger zerolog.Logger
}

// NewCollector creates an idle collector reading samples from fetcher.
func NewCollector(fetcher Fetcher, opts CollectorOptions) *Collector {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Collector{
		fetcher:  fetcher,
		interval: interval,
		fallback: opts.Fallback,
		logger:   opts.Logger,
		samples:  make(map[int64]float64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic sampling task: one sample immediately, then
// one per interval. Calling Start again, or after Stop, is a no-op.
func (c *Collector) Start(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	go c.run(ctx)
}

// Stop halts sampling immediately. Samples already collected are retained
// for further queries. Calling Stop again is a no-op.
func (c *Collector) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if !c.started {
		return
	}
	close(c.stop)
	<-c.done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	c.sampleOnce(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sampleOnce(ctx)
		}
	}
}

// sampleOnce fetches one reading. A failed fetch self-heals by inserting the
// fallback intensity at the current time, warning once per failure pattern.
func (c *Collector) sampleOnce(ctx context.Context) {
	s, err := c.fetcher.Fetch(ctx)
	if err != nil {
		telemetry.CIFetchErrors.Inc()
		if _, seen := c.failed.LoadOrStore(err.Error(), struct{}{}); !seen {
			c.logger.Warn().
				Err(err).
				Float64("fallback", c.fallback).
				Msg("carbon-intensity retrieval failed; substituting fallback intensity")
		}
		c.Insert(time.Now(), c.fallback)
		telemetry.CISamples.WithLabelValues("fallback").Inc()
		return
	}
	c.Insert(s.Datetime, s.CarbonIntensity)
	telemetry.CISamples.WithLabelValues("api").Inc()
}

// Insert records a sample. Inserting at an existing timestamp overwrites the
// stored value. Safe for use concurrently with queries.
func (c *Collector) Insert(ts time.Time, value float64) {
	c.mu.Lock()
	c.samples[ts.UnixMilli()] = value
	c.mu.Unlock()
}

// Len returns the number of stored samples.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}

type sample struct {
	ts    int64
	value float64
}

// snapshot returns the stored samples ordered by timestamp. Each query
// observes a consistent copy of the store.
func (c *Collector) snapshot() []sample {
	c.mu.RLock()
	out := make([]sample, 0, len(c.samples))
	for ts, v := range c.samples {
		out = append(out, sample{ts: ts, value: v})
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ts < out[j].ts })
	return out
}

// WeightedAverage computes the time-weighted average carbon intensity over
// the task interval [start, end], both boundaries inclusive.
//
// Samples inside the interval split it into a leading segment (valued at the
// latest sample before the interval, or the first inside sample when none
// precede it), an interior segment (valued at the plain mean of the inside
// samples excluding the last), and a trailing segment (valued at the last
// inside sample). Each segment contributes in proportion to its share of the
// interval. With no inside samples the nearest reading is applied to the
// whole interval. Fails with a MissingValue error when the store is empty.
func (c *Collector) WeightedAverage(start, end time.Time) (float64, error) {
	all := c.snapshot()
	if len(all) == 0 {
		return 0, fmt.Errorf("no carbon-intensity samples collected: %w", trace.ErrMissingValue)
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	var before, during, after []sample
	for _, s := range all {
		switch {
		case s.ts < startMs:
			before = append(before, s)
		case s.ts > endMs:
			after = append(after, s)
		default:
			during = append(during, s)
		}
	}

	if len(during) == 0 {
		if len(before) > 0 {
			return before[len(before)-1].value, nil
		}
		return after[0].value, nil
	}

	total := float64(endMs - startMs)
	if total <= 0 {
		// Degenerate instant interval: the inside sample is the value.
		return during[0].value, nil
	}

	first := during[0]
	last := during[len(during)-1]

	leadingWeight := float64(first.ts-startMs) / total
	leadingValue := first.value
	if len(before) > 0 {
		leadingValue = before[len(before)-1].value
	}

	trailingWeight := float64(endMs-last.ts) / total
	trailingValue := last.value

	// Interior samples contribute equally regardless of spacing; the last
	// inside sample is excluded because it values the trailing segment.
	interiorWeight := float64(last.ts-first.ts) / total
	var interiorValue float64
	if n := len(during) - 1; n > 0 {
		var sum float64
		for _, s := range during[:n] {
			sum += s.value
		}
		interiorValue = sum / float64(n)
	}

	return leadingWeight*leadingValue + interiorWeight*interiorValue + trailingWeight*trailingValue, nil
}
