package compiler

import "sync/atomic"

// Stats is a point-in-time snapshot of a Compiler's in-process
// counters (spec §4 "structured compiler metrics counters"). There is
// no metrics server here, only the plain-struct-of-countable-settings
// style config.Compiler already uses.
type Stats struct {
	Compiles    int64 // every call to Compile, any outcome
	Errors      int64 // calls to Compile that returned a non-nil error
	Retries     int64 // ReaderOutOfDate retry attempts across every statement
	BusyRejects int64 // statements rejected with a Busy SqlError (e.g. TRUNCATE vs. an open reader)
}

// counters is the mutable half of Stats, kept separate so Stats can be
// returned by value without copying atomics.
type counters struct {
	compiles    atomic.Int64
	errors      atomic.Int64
	retries     atomic.Int64
	busyRejects atomic.Int64
}

// Stats returns a snapshot of c's counters since it was created.
func (c *Compiler) Stats() Stats {
	return Stats{
		Compiles:    c.counters.compiles.Load(),
		Errors:      c.counters.errors.Load(),
		Retries:     c.counters.retries.Load(),
		BusyRejects: c.counters.busyRejects.Load(),
	}
}
