package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/legacy"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// hintState is the persisted window part of an AppHint
type hintState struct {
	IsOpen      bool            `json:"isOpen"`
	IsMinimized bool            `json:"isMinimized"`
	Position    *types.Position `json:"position,omitempty"`
	Size        *types.Size     `json:"size,omitempty"`
}

// RememberPath stores the initial path last used to launch appID
func (m *Manager) RememberPath(ctx context.Context, appID types.AppID, path string) error {
	return m.breaker.Do(ctx, func(ctx context.Context) error {
		return m.store.PutPath(ctx, string(appID), path)
	})
}

// RecordHints refreshes the per-app hints from snapshot. Apps that were open
// at the previous call and are now absent are recorded as closed, keeping
// their last geometry. Unchanged hints are not rewritten.
func (m *Manager) RecordHints(ctx context.Context, snapshot types.Snapshot) error {
	view := legacy.Project(snapshot)

	minimized := make(map[types.AppID]bool, len(view))
	for appID := range view {
		minimized[appID] = true
	}
	for _, inst := range snapshot.Instances {
		if !inst.IsMinimized {
			minimized[inst.AppID] = false
		}
	}

	m.hintsMu.Lock()
	defer m.hintsMu.Unlock()

	var errs []error
	for appID, state := range view {
		hs := hintState{
			IsOpen:      state.IsOpen,
			IsMinimized: minimized[appID],
			Position:    state.Position,
			Size:        state.Size,
		}
		if err := m.writeHintLocked(ctx, appID, hs); err != nil {
			errs = append(errs, err)
		}
	}

	for appID, encoded := range m.hints {
		if _, open := view[appID]; open {
			continue
		}
		var prev hintState
		if err := sonic.UnmarshalString(encoded, &prev); err != nil || !prev.IsOpen {
			continue
		}
		prev.IsOpen = false
		prev.IsMinimized = false
		if err := m.writeHintLocked(ctx, appID, prev); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) writeHintLocked(ctx context.Context, appID types.AppID, hs hintState) error {
	encoded, err := sonic.MarshalString(hs)
	if err != nil {
		return fmt.Errorf("encode hint %s: %w", appID, err)
	}
	if m.hints[appID] == encoded {
		return nil
	}
	err = m.breaker.Do(ctx, func(ctx context.Context) error {
		return m.store.PutState(ctx, string(appID), []byte(encoded))
	})
	if err != nil {
		return fmt.Errorf("write hint %s: %w", appID, err)
	}
	m.hints[appID] = encoded
	return nil
}

// HandleStateChanged records hints for every state-changed event
func (m *Manager) HandleStateChanged(ctx context.Context) events.Handler {
	return func(evt events.Event) {
		snap, ok := evt.Payload.(types.Snapshot)
		if !ok {
			return
		}
		err := m.RecordHints(ctx, snap)
		switch {
		case err == nil:
		case errors.Is(err, resilience.ErrOpen), errors.Is(err, resilience.ErrProbeInFlight):
			m.logger.Debug("Hint store unavailable, skipping", zap.Error(err))
		default:
			m.logger.Warn("Failed to record app hints", zap.Error(err))
		}
	}
}

// Hint returns the stored hint for appID
func (m *Manager) Hint(ctx context.Context, appID types.AppID) (types.AppHint, bool, error) {
	rec, err := m.store.GetHint(ctx, string(appID))
	if errors.Is(err, store.ErrNotFound) {
		return types.AppHint{}, false, nil
	}
	if err != nil {
		return types.AppHint{}, false, err
	}
	hint, err := decodeHint(rec)
	if err != nil {
		return types.AppHint{}, false, err
	}
	return hint, true, nil
}

// Hints returns every stored hint ordered by app id
func (m *Manager) Hints(ctx context.Context) ([]types.AppHint, error) {
	recs, err := m.store.ListHints(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.AppHint, 0, len(recs))
	for _, rec := range recs {
		hint, err := decodeHint(rec)
		if err != nil {
			m.logger.Warn("Skipping corrupt hint", zap.String("app_id", rec.AppID), zap.Error(err))
			continue
		}
		out = append(out, hint)
	}
	return out, nil
}

func decodeHint(rec store.HintRecord) (types.AppHint, error) {
	hint := types.AppHint{
		AppID:       types.AppID(rec.AppID),
		InitialPath: rec.InitialPath,
		UpdatedAt:   rec.UpdatedAt,
	}
	if len(rec.State) == 0 {
		return hint, nil
	}
	var hs hintState
	if err := sonic.Unmarshal(rec.State, &hs); err != nil {
		return types.AppHint{}, fmt.Errorf("decode hint %s: %w", rec.AppID, err)
	}
	hint.IsOpen = hs.IsOpen
	hint.IsMinimized = hs.IsMinimized
	hint.Position = hs.Position
	hint.Size = hs.Size
	return hint, nil
}
