// Package pipeline provides the pull-based record stream used by sources and
// the bounded relay that hands records from the producer to the worker pool.
//
// Streams are lazy: no work happens until values are pulled with Next.
// Map converts each value and reports a failure for that position only;
// Filter drops values. Sources build their record streams from these.
//
// # Relay
//
// Relay is a fixed-capacity FIFO of Item values. An Item is either Work
// carrying a value or the Stop marker telling one consumer to exit:
//
//	relay := pipeline.NewRelay[Record](40)
//	relay.Put(ctx, pipeline.Work(rec), abandon)
//	item, ok := relay.Take(ctx)
//	if item.IsStop() { return }
package pipeline
