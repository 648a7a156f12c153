// Package config holds Executor tuning knobs and resource limits: a
// plain struct plus a handful of named constructors for common
// deployment shapes, never a package-level global.
package config

import "time"

// Config bounds the Executor's resource usage for a single run.
type Config struct {
	// MaxBatchConcurrency caps the number of compute goroutines the
	// Executor runs simultaneously within one ready batch. Zero means
	// unbounded (one goroutine per node in the batch). Bound it when
	// compute bodies are CPU-bound.
	MaxBatchConcurrency int

	// CheckpointEveryBatch, when true, emits a checkpoint after every
	// completed batch. Disabling it is an opt-out for callers who only
	// want the terminal checkpoint (e.g. hot loops where checkpoint
	// emission cost matters). Every preset sets it true.
	CheckpointEveryBatch bool

	// MaxRunSteps is a runaway-loop backstop: the LIFO deferred stack
	// can in principle never drain on a malformed graph. Zero disables
	// the check. Exceeding it raises MaxRunStepsExceededError rather
	// than hanging forever.
	MaxRunSteps int

	// ComputeTimeout, if nonzero, is passed to each compute's
	// ComputeContext as a context deadline. Cancellation is otherwise
	// the caller's concern; this is a convenience, never enforced
	// internally beyond setting the context deadline.
	ComputeTimeout time.Duration
}

// Default returns the baseline configuration: unbounded batch
// concurrency, checkpoint after every batch, a generous step ceiling,
// no compute timeout.
func Default() Config {
	return Config{
		MaxBatchConcurrency:  0,
		CheckpointEveryBatch: true,
		MaxRunSteps:          100_000,
	}
}

// Production raises the step ceiling above Default's, bounds batch
// concurrency to a conservative default, and sets a 30-second compute
// timeout, suited to a long-lived service process running many
// concurrent graphs.
func Production() Config {
	return Config{
		MaxBatchConcurrency:  32,
		CheckpointEveryBatch: true,
		MaxRunSteps:          1_000_000,
		ComputeTimeout:       30 * time.Second,
	}
}

// Testing keeps the step ceiling small (tests that run away should
// fail fast) and checkpoints every
// batch so assertions can inspect scheduler state after each tick.
func Testing() Config {
	return Config{
		MaxBatchConcurrency:  0,
		CheckpointEveryBatch: true,
		MaxRunSteps:          10_000,
	}
}
