package launch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Subscriber is the part of the event bus a Listener needs
type Subscriber interface {
	Subscribe(channel events.Channel, handler events.Handler) func()
}

// Listener feeds launch-app events into a Router
type Listener struct {
	router *Router
	logger *zap.Logger
	ctx    context.Context
}

// NewListener creates a listener bound to ctx for hint recording
func NewListener(ctx context.Context, router *Router, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{router: router, logger: logger, ctx: ctx}
}

// Attach subscribes to the launch channel and returns the unsubscribe func
func (l *Listener) Attach(bus Subscriber) func() {
	return bus.Subscribe(events.ChannelLaunchApp, l.Handle)
}

// Handle launches the intent carried by evt. Failures are logged, never raised.
func (l *Listener) Handle(evt events.Event) {
	intent, ok := intentOf(evt.Payload)
	if !ok {
		l.logger.Warn("ignoring malformed launch event", zap.Any("payload", evt.Payload))
		return
	}

	result, err := l.router.Launch(evt.Context(l.ctx), intent)
	if err != nil {
		var unknown *types.UnknownAppError
		if errors.As(err, &unknown) {
			l.logger.Warn("launch event for unknown app", zap.String("app_id", string(unknown.AppID)))
			return
		}
		l.logger.Error("launch event failed", zap.String("app_id", string(intent.AppID)), zap.Error(err))
		return
	}

	l.logger.Info("launched from event",
		zap.String("app_id", string(intent.AppID)),
		zap.String("instance_id", result.InstanceID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("trace_id", string(evt.TraceID)))
}

func intentOf(payload any) (types.LaunchIntent, bool) {
	switch v := payload.(type) {
	case types.LaunchIntent:
		return v, true
	case *types.LaunchIntent:
		if v == nil {
			return types.LaunchIntent{}, false
		}
		return *v, true
	default:
		return types.LaunchIntent{}, false
	}
}
