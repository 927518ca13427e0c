package telemetry

import "sync/atomic"

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Metrics is the global metrics registry, rendered in the TUI status line.
var Metrics = struct {
	PagesFetched         Counter
	FetchErrors          Counter
	NotificationsApplied Counter
	NotificationsDropped Counter
	AutofillsApplied     Counter
	EditsSubmitted       Counter
}{}
