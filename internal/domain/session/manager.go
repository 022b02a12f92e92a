package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ErrSessionNotFound is returned for an unknown session id
var ErrSessionNotFound = errors.New("session not found")

// Store persists hints and session blobs
type Store interface {
	PutPath(ctx context.Context, appID, path string) error
	PutState(ctx context.Context, appID string, state []byte) error
	GetHint(ctx context.Context, appID string) (store.HintRecord, error)
	ListHints(ctx context.Context) ([]store.HintRecord, error)
	PutSession(ctx context.Context, rec store.SessionRecord) error
	GetSession(ctx context.Context, id string) (store.SessionRecord, error)
	ListSessions(ctx context.Context) ([]store.SessionRecord, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	CountSessions(ctx context.Context) (int, error)
}

// Manager handles hint and session persistence
type Manager struct {
	registry *window.Registry
	store    Store
	codec    *codec
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	breaker  *resilience.Breaker // guards hint writes
	now      func() time.Time
	newID    func() string

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time

	hintsMu sync.Mutex
	hints   map[types.AppID]string // last written state per app, guarded by hintsMu
}

// NewManager creates a new session manager
func NewManager(registry *window.Registry, st Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	breaker := resilience.New("hints", resilience.Settings{
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Hint store breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Manager{
		registry: registry,
		store:    st,
		codec:    c,
		logger:   logger,
		breaker:  breaker,
		now:      time.Now,
		newID:    func() string { return id.NewSessionID().String() },
		hints:    make(map[types.AppID]string),
	}, nil
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithBreaker replaces the breaker guarding hint writes
func (m *Manager) WithBreaker(breaker *resilience.Breaker) *Manager {
	m.breaker = breaker
	return m
}

// Close releases codec resources
func (m *Manager) Close() {
	m.codec.close()
}

// Save captures the current workspace under name
func (m *Manager) Save(ctx context.Context, name, description string) (*types.Session, error) {
	timer := monitoring.NewTimer(m.metrics, "session", "save")

	snap := m.registry.Snapshot()
	workspace := types.Workspace{Instances: snap.Ordered()}
	if fg, ok := snap.Foreground(); ok {
		fgID := fg.InstanceID
		workspace.ForegroundID = &fgID
	}

	now := m.now().UTC()
	session := &types.Session{
		ID:          m.newID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		Workspace:   workspace,
	}

	blob, err := m.codec.encode(session)
	if err != nil {
		timer.StopErr(err)
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	err = m.store.PutSession(ctx, store.SessionRecord{
		ID:          session.ID,
		Name:        session.Name,
		Description: session.Description,
		Instances:   len(workspace.Instances),
		Blob:        blob,
		CreatedAt:   now,
	})
	timer.StopErr(err)
	if err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.metrics.IncSessionsSaved()
	m.refreshCount(ctx)
	m.logger.Info("Session saved",
		zap.String("session_id", session.ID),
		zap.String("name", name),
		zap.Int("instances", len(workspace.Instances)))

	return session, nil
}

// Load reads a saved session
func (m *Manager) Load(ctx context.Context, sessionID string) (*types.Session, error) {
	rec, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session types.Session
	if err := m.codec.decode(rec.Blob, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session %s has empty ID field", sessionID)
	}
	return &session, nil
}

// Restore replaces the open instances with the saved workspace. Instances of
// apps that are no longer registered are skipped.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*types.Session, error) {
	timer := monitoring.NewTimer(m.metrics, "session", "restore")

	session, err := m.Load(ctx, sessionID)
	if err != nil {
		timer.StopErr(err)
		return nil, err
	}

	var skipped []string
	err = m.registry.Atomically(func(tx *window.Txn) error {
		saved := make([]types.Instance, 0, len(session.Workspace.Instances))
		seen := make(map[string]bool)
		for _, inst := range session.Workspace.Instances {
			if !tx.Known(inst.AppID) || inst.InstanceID == "" || seen[inst.InstanceID] {
				skipped = append(skipped, inst.InstanceID)
				continue
			}
			seen[inst.InstanceID] = true
			saved = append(saved, inst)
		}

		tx.CloseAll()
		for _, inst := range saved {
			opts := []window.CreateOption{
				window.WithID(inst.InstanceID),
				window.WithGeometry(inst.Position, inst.Size),
				window.WithTitle(inst.Title),
			}
			if inst.IsMinimized {
				opts = append(opts, window.WithMinimized())
			}
			if _, err := tx.Create(inst.AppID, inst.InitialData, opts...); err != nil {
				return fmt.Errorf("failed to restore instance %s: %w", inst.InstanceID, err)
			}
		}

		if fg := session.Workspace.ForegroundID; fg != nil {
			tx.BringToForeground(*fg)
		}
		return nil
	})
	timer.StopErr(err)
	if err != nil {
		return nil, err
	}

	if len(skipped) > 0 {
		m.logger.Warn("Skipped unrestorable instances",
			zap.String("session_id", sessionID),
			zap.Strings("instance_ids", skipped))
	}

	now := m.now().UTC()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	m.metrics.IncSessionsRestored()
	m.logger.Info("Session restored",
		zap.String("session_id", sessionID),
		zap.Int("instances", len(session.Workspace.Instances)-len(skipped)))

	return session, nil
}

// List returns all saved sessions, newest first
func (m *Manager) List(ctx context.Context) ([]types.SessionMetadata, error) {
	recs, err := m.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.SessionMetadata, 0, len(recs))
	for _, rec := range recs {
		out = append(out, types.SessionMetadata{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Instances:   rec.Instances,
			CreatedAt:   rec.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes a session
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	existed, err := m.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if !existed {
		return ErrSessionNotFound
	}
	m.refreshCount(ctx)
	return nil
}

// Stats returns session manager statistics
func (m *Manager) Stats(ctx context.Context) types.SessionStats {
	total, err := m.store.CountSessions(ctx)
	if err != nil {
		m.logger.Warn("Failed to count sessions", zap.Error(err))
	}

	m.mu.RLock()
	lastSaved := m.lastSaved
	lastRestored := m.lastRestored
	m.mu.RUnlock()

	return types.SessionStats{
		TotalSessions: total,
		LastSaved:     lastSaved,
		LastRestored:  lastRestored,
	}
}

func (m *Manager) refreshCount(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	if n, err := m.store.CountSessions(ctx); err == nil {
		m.metrics.SetSessionsStored(n)
	}
}
