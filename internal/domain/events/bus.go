package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
)

// Channel names an event stream
type Channel string

const (
	// ChannelLaunchApp carries a types.LaunchIntent
	ChannelLaunchApp Channel = "launch-app"
	// ChannelInstanceDataChanged carries a types.DataChange
	ChannelInstanceDataChanged Channel = "instance-data-changed"
	// ChannelStateChanged carries a types.Snapshot
	ChannelStateChanged Channel = "state-changed"
)

// ErrClosed is returned by Flush on a closed bus
var ErrClosed = errors.New("event bus closed")

// Event is a single emission. TraceID and SpanID are set when the emitting
// context was traced.
type Event struct {
	Channel   Channel
	Payload   any
	EmittedAt time.Time
	TraceID   tracing.TraceID
	SpanID    tracing.SpanID
}

// Context returns parent carrying the event's trace, so work done by a
// subscriber joins the trace that emitted it
func (e Event) Context(parent context.Context) context.Context {
	return tracing.ContextWithTrace(parent, e.TraceID, e.SpanID)
}

// Handler consumes events
type Handler func(Event)

// Config controls delivery semantics
type Config struct {
	// Durable buffers at most one pending event per channel until a subscriber appears
	Durable bool
}

// DefaultConfig returns the durable configuration
func DefaultConfig() Config {
	return Config{Durable: true}
}

type subscription struct {
	id      uint64
	handler Handler
	active  atomic.Bool
}

type delivery struct {
	event    Event
	subs     []*subscription
	barrier  chan struct{}
	buffered bool
}

// Bus delivers events to channel subscribers in emission order
type Bus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	subs    map[Channel][]*subscription // Protected by mu
	pending map[Channel]Event           // Protected by mu
	queue   []delivery                  // Protected by mu
	closed  bool                        // Protected by mu
	nextID  uint64                      // Protected by mu

	cfg       Config
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// NewBus starts a bus and its dispatch goroutine
func NewBus(cfg Config, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		subs:    make(map[Channel][]*subscription),
		pending: make(map[Channel]Event),
		cfg:     cfg,
		done:    make(chan struct{}),
		logger:  logger,
		now:     time.Now,
	}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// WithMetrics adds metrics tracking to the bus
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// Emit queues payload for every current subscriber of channel. It never blocks
// on handlers. Emitting on a closed bus is a no-op.
func (b *Bus) Emit(channel Channel, payload any) {
	b.EmitContext(context.Background(), channel, payload)
}

// EmitContext is Emit carrying the trace found in ctx
func (b *Bus) EmitContext(ctx context.Context, channel Channel, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.logger.Debug("emit on closed bus", zap.String("channel", string(channel)))
		return
	}

	evt := Event{
		Channel:   channel,
		Payload:   payload,
		EmittedAt: b.now(),
		TraceID:   tracing.GetTraceID(ctx),
		SpanID:    tracing.GetSpanID(ctx),
	}
	b.metrics.RecordEventEmitted(string(channel))

	subs := b.subs[channel]
	if len(subs) == 0 {
		if b.cfg.Durable {
			b.pending[channel] = evt
			b.metrics.RecordEventMissed(string(channel), "buffered")
			b.logger.Debug("event buffered, no subscriber", zap.String("channel", string(channel)))
			return
		}
		b.metrics.RecordEventMissed(string(channel), "dropped")
		b.logger.Warn("EventDeliveryMiss", zap.String("channel", string(channel)))
		return
	}

	b.enqueueLocked(delivery{event: evt, subs: append([]*subscription(nil), subs...)})
}

// EmitAfter emits after delay unless ctx is cancelled first. The trace in ctx
// travels with the event.
func (b *Bus) EmitAfter(ctx context.Context, delay time.Duration, channel Channel, payload any) {
	if delay <= 0 {
		b.EmitContext(ctx, channel, payload)
		return
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			b.logger.Debug("delayed emit cancelled", zap.String("channel", string(channel)))
		case <-timer.C:
			b.EmitContext(ctx, channel, payload)
		case <-b.done:
		}
	}()
}

// Subscribe registers handler on channel and returns a function that removes it.
// On a durable bus a buffered event for channel is delivered to the first subscriber.
func (b *Bus) Subscribe(channel Channel, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	sub.active.Store(true)
	b.subs[channel] = append(b.subs[channel], sub)

	if evt, ok := b.pending[channel]; ok && !b.closed {
		delete(b.pending, channel)
		b.enqueueLocked(delivery{event: evt, subs: []*subscription{sub}, buffered: true})
	}

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(channel, sub) })
	}
}

func (b *Bus) unsubscribe(channel Channel, sub *subscription) {
	sub.active.Store(false)

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[channel]
	for i, s := range subs {
		if s.id == sub.id {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// Subscribers returns the number of handlers on channel
func (b *Bus) Subscribers(channel Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Pending reports whether channel holds a buffered event
func (b *Bus) Pending(channel Channel) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[channel]
	return ok
}

// Flush blocks until every delivery queued before the call has run
func (b *Bus) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.enqueueLocked(delivery{barrier: barrier})
	b.mu.Unlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains queued deliveries and stops the dispatcher
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.cond.Broadcast()
		b.mu.Unlock()
		<-b.done
	})
}

func (b *Bus) enqueueLocked(d delivery) {
	b.queue = append(b.queue, d)
	b.cond.Signal()
}

func (b *Bus) run() {
	defer close(b.done)

	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		d := b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.dispatch(d)
	}
}

func (b *Bus) dispatch(d delivery) {
	if d.barrier != nil {
		close(d.barrier)
		return
	}
	for _, sub := range d.subs {
		if !sub.active.Load() {
			continue
		}
		b.invoke(sub, d.event)
	}
	if d.buffered {
		b.logger.Debug("buffered event delivered", zap.String("channel", string(d.event.Channel)))
	}
}

func (b *Bus) invoke(sub *subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.RecordHandlerPanic(string(evt.Channel))
			b.logger.Error("event handler panicked",
				zap.String("channel", string(evt.Channel)),
				zap.Any("panic", r))
		}
	}()

	sub.handler(evt)
	b.metrics.RecordEventDelivered(string(evt.Channel))
}
