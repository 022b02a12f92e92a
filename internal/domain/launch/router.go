// Package launch turns launch intents into registry mutations, applying each
// application's reuse policy.
package launch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/utils"
)

// Outcome describes how a launch was resolved
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeReused   Outcome = "reused"
	OutcomeRejected Outcome = "rejected"
)

// Result is returned for every successful launch
type Result struct {
	InstanceID  string  `json:"instanceId"`
	Outcome     Outcome `json:"outcome"`
	DataChanged bool    `json:"dataChanged"`
}

// Notifier publishes side-channel notifications
type Notifier interface {
	Emit(channel events.Channel, payload any)
}

// Catalog provides launch policy and default geometry
type Catalog interface {
	Lookup(appID types.AppID) (types.Definition, bool)
	Policy(appID types.AppID) types.Policy
}

// PathRecorder stores app-scoped initial path hints
type PathRecorder interface {
	RememberPath(ctx context.Context, appID types.AppID, path string) error
}

// Router resolves launch intents against the registry
type Router struct {
	registry *window.Registry
	catalog  Catalog
	notifier Notifier
	paths    PathRecorder
	comparer *utils.PayloadComparer
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

// NewRouter creates a router. notifier and catalog may be nil.
func NewRouter(registry *window.Registry, catalog Catalog, notifier Notifier, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		registry: registry,
		catalog:  catalog,
		notifier: notifier,
		comparer: utils.NewPayloadComparer(nil),
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the router
func (r *Router) WithMetrics(metrics *monitoring.Metrics) *Router {
	r.metrics = metrics
	return r
}

// WithTracer opens a span around every launch
func (r *Router) WithTracer(tracer *tracing.Tracer) *Router {
	r.tracer = tracer
	return r
}

// WithPathRecorder records InitialPath hints for every accepted launch
func (r *Router) WithPathRecorder(paths PathRecorder) *Router {
	r.paths = paths
	return r
}

// Launch opens appID or brings its most recently focused instance forward.
// A new instance is created when none is open, or when the app allows
// multiple instances and the intent asks for one. Unknown apps fail with
// *types.UnknownAppError and leave the registry untouched.
func (r *Router) Launch(ctx context.Context, intent types.LaunchIntent) (Result, error) {
	span, ctx := r.tracer.StartSpan(ctx, "launch")
	span.SetTag("app_id", string(intent.AppID))

	result, err := r.launch(ctx, intent)
	if err != nil {
		span.SetError(err)
	} else {
		span.SetTag("instance_id", result.InstanceID)
		span.SetTag("outcome", string(result.Outcome))
	}

	span.Finish()
	r.tracer.Submit(span)
	return result, err
}

func (r *Router) launch(ctx context.Context, intent types.LaunchIntent) (Result, error) {
	def := r.definition(intent.AppID)

	var result Result
	var change types.DataChange

	err := r.registry.Atomically(func(tx *window.Txn) error {
		if !tx.Known(intent.AppID) {
			return &types.UnknownAppError{AppID: intent.AppID}
		}

		existing, found := tx.MostRecent(intent.AppID)
		if !found || (def.Policy == types.PolicyMulti && intent.NewInstance) {
			instanceID, err := tx.Create(intent.AppID, intent.InitialData,
				window.WithGeometry(def.DefaultPosition, def.DefaultSize))
			if err != nil {
				return err
			}
			result = Result{InstanceID: instanceID, Outcome: OutcomeCreated}
			return nil
		}

		if existing.IsMinimized {
			tx.Restore(existing.InstanceID)
		} else {
			tx.BringToForeground(existing.InstanceID)
		}

		result = Result{InstanceID: existing.InstanceID, Outcome: OutcomeReused}

		// A launch without a payload keeps whatever the instance already shows
		if intent.InitialData != nil && !r.comparer.Equal(existing.InitialData, intent.InitialData) {
			tx.UpdateData(existing.InstanceID, intent.InitialData)
			result.DataChanged = true
			change = types.DataChange{
				InstanceID:  existing.InstanceID,
				AppID:       intent.AppID,
				InitialData: intent.InitialData,
				InitialPath: intent.InitialPath,
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrUnknownApp) {
			r.metrics.RecordLaunch(string(intent.AppID), string(OutcomeRejected))
			r.logger.Warn("launch rejected",
				zap.String("app_id", string(intent.AppID)),
				zap.String("trace_id", string(tracing.GetTraceID(ctx))))
		}
		return Result{}, err
	}

	r.metrics.RecordLaunch(string(intent.AppID), string(result.Outcome))
	r.logger.Debug("launch resolved",
		zap.String("app_id", string(intent.AppID)),
		zap.String("instance_id", result.InstanceID),
		zap.String("outcome", string(result.Outcome)),
		zap.Bool("data_changed", result.DataChanged),
		zap.String("trace_id", string(tracing.GetTraceID(ctx))))

	if result.DataChanged && r.notifier != nil {
		r.notifier.Emit(events.ChannelInstanceDataChanged, change)
	}

	if intent.InitialPath != "" && r.paths != nil {
		if err := r.paths.RememberPath(ctx, intent.AppID, intent.InitialPath); err != nil {
			r.logger.Warn("failed to record path hint",
				zap.String("app_id", string(intent.AppID)),
				zap.Error(err))
		}
	}

	return result, nil
}

func (r *Router) definition(appID types.AppID) types.Definition {
	if r.catalog == nil {
		return types.Definition{ID: appID, Policy: types.PolicySingle}
	}
	def, _ := r.catalog.Lookup(appID)
	def.ID = appID
	def.Policy = r.catalog.Policy(appID)
	return def
}
