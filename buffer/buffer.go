// Package buffer batches log events in memory before network transmission,
// decoupling bursty producers from delivery latency and bounding memory.
package buffer

import (
	"context"
	"log"
	"sync"
	"time"

	"skylog/models"
)

// Defaults match the agent's tuning knobs.
const (
	DefaultFlushInterval = 5 * time.Second
	DefaultBatchSize     = 10
	DefaultMaxBufferSize = 1000
)

// Sender transmits one batch. The sender owns all retry logic; the buffer
// never retries a failed batch.
type Sender interface {
	SendBatch(ctx context.Context, events []models.LogEvent) error
}

// OverflowPolicy decides what happens when the buffer is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued event to make room, keeping the
	// most recent data at the cost of bounded staleness.
	DropOldest OverflowPolicy = iota
	// RejectNew refuses the incoming event instead.
	RejectNew
)

// Options tune the buffer. Zero values fall back to the defaults.
type Options struct {
	FlushInterval time.Duration
	BatchSize     int
	MaxBufferSize int
	Overflow      OverflowPolicy
}

func (o Options) withDefaults() Options {
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = DefaultMaxBufferSize
	}
	return o
}

// Stats are the buffer's delivery counters.
type Stats struct {
	Flushed int64 // events handed to the sender successfully
	Failed  int64 // events discarded after a failed send
	Dropped int64 // events evicted or rejected on overflow
}

// Buffer is an in-process bounded queue that flushes either when a batch
// fills (size trigger) or on a periodic timer (time trigger). Queue mutation
// happens under one mutex, so a timer flush and a size-triggered flush can
// interleave without double-sending or losing events: whichever runs first
// swaps the queue out atomically and the other sees it empty.
type Buffer struct {
	sender Sender
	opts   Options

	mu    sync.Mutex
	queue []models.LogEvent
	stats Stats

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	wg      sync.WaitGroup
}

func New(sender Sender, opts Options) *Buffer {
	return &Buffer{
		sender: sender,
		opts:   opts.withDefaults(),
	}
}

// Add appends an event to the queue and reports whether it was accepted.
// On overflow the configured policy applies; with DropOldest the incoming
// event is always accepted. Reaching the batch size swaps the queue out
// immediately and dispatches the send in the background, so Add never blocks
// on the network.
func (b *Buffer) Add(event models.LogEvent) bool {
	b.mu.Lock()

	if len(b.queue) >= b.opts.MaxBufferSize {
		if b.opts.Overflow == RejectNew {
			b.stats.Dropped++
			b.mu.Unlock()
			return false
		}
		b.queue = b.queue[1:]
		b.stats.Dropped++
	}
	b.queue = append(b.queue, event)

	var batch []models.LogEvent
	if len(b.queue) >= b.opts.BatchSize {
		batch = b.swapLocked()
	}
	b.mu.Unlock()

	if batch != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.send(context.Background(), batch)
		}()
	}
	return true
}

// Start begins the periodic time-triggered flush, catching low-volume
// producers that never fill a batch.
func (b *Buffer) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.mu.Unlock()

	log.Printf("Buffer: started, flush interval=%v batch size=%d", b.opts.FlushInterval, b.opts.BatchSize)

	go func() {
		defer close(b.doneCh)
		ticker := time.NewTicker(b.opts.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopCh:
				return
			case <-ticker.C:
				b.Flush(context.Background())
			}
		}
	}()
}

// Stop cancels the timer, drains the queue with one final flush, and waits
// for size-triggered sends still in flight. Sends are bounded by the
// sender's own timeout, so Stop cannot hang indefinitely.
func (b *Buffer) Stop() {
	b.mu.Lock()
	if b.started {
		b.started = false
		close(b.stopCh)
	}
	done := b.doneCh
	b.mu.Unlock()

	if done != nil {
		<-done
	}
	b.Flush(context.Background())
	b.wg.Wait()
}

// Flush transmits the queued events, if any. The queue is swapped out
// atomically before sending so events in flight cannot be re-sent by a
// concurrent trigger. A failed batch is counted and discarded, never
// re-queued.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.swapLocked()
	b.mu.Unlock()

	if batch == nil {
		return nil
	}
	return b.send(ctx, batch)
}

// Stats returns a snapshot of the delivery counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Len returns the number of currently queued events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// swapLocked removes and returns the current queue. Caller must hold b.mu.
func (b *Buffer) swapLocked() []models.LogEvent {
	if len(b.queue) == 0 {
		return nil
	}
	batch := b.queue
	b.queue = nil
	return batch
}

func (b *Buffer) send(ctx context.Context, batch []models.LogEvent) error {
	err := b.sender.SendBatch(ctx, batch)

	b.mu.Lock()
	if err != nil {
		b.stats.Failed += int64(len(batch))
	} else {
		b.stats.Flushed += int64(len(batch))
	}
	b.mu.Unlock()

	if err != nil {
		log.Printf("Buffer: flush of %d events failed: %v", len(batch), err)
		return err
	}
	return nil
}
