package window

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Catalog reports which app ids may be instantiated
type Catalog interface {
	Has(appID types.AppID) bool
}

// Observer receives a snapshot after every committed change
type Observer func(types.Snapshot)

// Option configures a Registry
type Option func(*Registry)

// WithIDGenerator replaces the instance id generator
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// WithClock replaces the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithObserver registers a change observer
func WithObserver(obs Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, obs) }
}

// WithLogger sets the registry logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// Registry tracks every live instance and the stacking order
type Registry struct {
	mu        sync.RWMutex
	catalog   Catalog
	instances map[string]*types.Instance // Protected by mu
	order     []string                   // Protected by mu, back to front
	lastFocus map[string]uint64          // Protected by mu, focus sequence per instance
	seq       uint64                     // Protected by mu
	focusSeq  uint64                     // Protected by mu
	version   uint64                     // Protected by mu
	pubTicket uint64                     // Protected by mu, next publish ticket
	pubMu     sync.Mutex
	pubCond   *sync.Cond
	pubNext   uint64 // Protected by pubMu, ticket allowed to publish
	newID     func() string
	now       func() time.Time
	observers []Observer
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// New creates an empty registry. A nil catalog accepts every known app id.
func New(catalog Catalog, opts ...Option) *Registry {
	r := &Registry{
		catalog:   catalog,
		instances: make(map[string]*types.Instance),
		lastFocus: make(map[string]uint64),
		newID:     func() string { return id.NewInstanceID().String() },
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	r.pubCond = sync.NewCond(&r.pubMu)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Observe registers an observer after construction
func (r *Registry) Observe(obs Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, obs)
	r.mu.Unlock()
}

// CreateOption adjusts a single Create call
type CreateOption func(*createConfig)

type createConfig struct {
	id        string
	position  *types.Position
	size      *types.Size
	title     string
	minimized bool
}

// WithID uses an explicit instance id instead of generating one
func WithID(instanceID string) CreateOption {
	return func(c *createConfig) { c.id = instanceID }
}

// WithGeometry sets the initial position and size
func WithGeometry(pos *types.Position, size *types.Size) CreateOption {
	return func(c *createConfig) {
		c.position = pos
		c.size = size
	}
}

// WithTitle sets a display title override
func WithTitle(title string) CreateOption {
	return func(c *createConfig) { c.title = title }
}

// WithMinimized creates the instance minimized, leaving foreground untouched
func WithMinimized() CreateOption {
	return func(c *createConfig) { c.minimized = true }
}

// Create allocates a new open, foreground instance appended to the top of the order.
// It fails only for an unregistered app id (or a clashing explicit id).
func (r *Registry) Create(appID types.AppID, initialData any, opts ...CreateOption) (string, error) {
	var created string
	err := r.Atomically(func(tx *Txn) error {
		var err error
		created, err = tx.Create(appID, initialData, opts...)
		return err
	})
	return created, err
}

// Close removes an instance. Closing a missing instance is a no-op.
func (r *Registry) Close(instanceID string) bool {
	return r.mutate(func() bool { return r.closeLocked(instanceID) })
}

// UpdateGeometry shallow-merges the provided position and size
func (r *Registry) UpdateGeometry(instanceID string, pos *types.Position, size *types.Size) bool {
	return r.mutate(func() bool { return r.updateGeometryLocked(instanceID, pos, size) })
}

// UpdateData replaces the opaque payload of an instance
func (r *Registry) UpdateData(instanceID string, initialData any) bool {
	return r.mutate(func() bool { return r.updateDataLocked(instanceID, initialData) })
}

// SetTitle sets or clears the display title override
func (r *Registry) SetTitle(instanceID, title string) bool {
	return r.mutate(func() bool { return r.setTitleLocked(instanceID, title) })
}

// Minimize hides an instance; foreground passes to the topmost visible instance
func (r *Registry) Minimize(instanceID string) bool {
	return r.mutate(func() bool { return r.minimizeLocked(instanceID) })
}

// Restore un-minimizes an instance and brings it to the foreground
func (r *Registry) Restore(instanceID string) bool {
	return r.mutate(func() bool { return r.restoreLocked(instanceID) })
}

// Get retrieves a copy of an instance
func (r *Registry) Get(instanceID string) (types.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.instances[instanceID]
	if !ok {
		return types.Instance{}, false
	}
	return copyInstance(inst), true
}

// List returns copies of all instances in stacking order (back to front)
func (r *Registry) List() []types.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// InstancesOf returns the open instances of appID in creation order
func (r *Registry) InstancesOf(appID types.AppID) []types.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sibs := r.siblingsLocked(appID)
	out := make([]types.Instance, len(sibs))
	for i, inst := range sibs {
		out[i] = copyInstance(inst)
	}
	return out
}

// Snapshot returns the full instance map and order
func (r *Registry) Snapshot() types.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Stats returns registry statistics
func (r *Registry) Stats() types.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := types.Stats{TotalInstances: len(r.instances), Version: r.version}
	for _, inst := range r.instances {
		if inst.IsMinimized {
			stats.MinimizedInstances++
		}
		if inst.IsForeground {
			fg := inst.InstanceID
			stats.ForegroundID = &fg
		}
	}
	return stats
}

// Atomically runs fn as one uninterrupted step. Observers are notified once
// afterwards if anything changed. Mutations made before fn returns an error
// are kept.
func (r *Registry) Atomically(fn func(tx *Txn) error) error {
	r.mu.Lock()
	tx := &Txn{r: r}
	defer func() {
		c := r.commitLocked(tx.changed)
		tx.r = nil
		r.mu.Unlock()
		r.publish(c)
	}()
	return fn(tx)
}

// mutate applies a single locked operation and notifies observers on change
func (r *Registry) mutate(op func() bool) bool {
	r.mu.Lock()
	changed := op()
	c := r.commitLocked(changed)
	r.mu.Unlock()

	r.publish(c)
	return changed
}

// commit is a snapshot waiting for its publish turn
type commit struct {
	snap      types.Snapshot
	observers []Observer
	ticket    uint64
	notify    bool
}

// commitLocked bumps the version and captures a snapshot for observers (must hold lock)
func (r *Registry) commitLocked(changed bool) commit {
	if !changed {
		return commit{}
	}
	r.version++
	if r.metrics != nil {
		r.metrics.SetInstancesOpen(len(r.instances))
	}
	if len(r.observers) == 0 {
		return commit{}
	}
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)

	c := commit{snap: r.snapshotLocked(), observers: observers, ticket: r.pubTicket, notify: true}
	r.pubTicket++
	return c
}

// publish delivers snapshots in commit order. Tickets are taken under mu, so
// a commit waits here until every earlier commit has been delivered.
// Observers must not mutate the registry.
func (r *Registry) publish(c commit) {
	if !c.notify {
		return
	}

	r.pubMu.Lock()
	for r.pubNext != c.ticket {
		r.pubCond.Wait()
	}
	r.pubMu.Unlock()

	defer func() {
		r.pubMu.Lock()
		r.pubNext++
		r.pubCond.Broadcast()
		r.pubMu.Unlock()
	}()

	for _, obs := range c.observers {
		obs(c.snap)
	}
}

// createLocked inserts a new instance (must hold lock)
func (r *Registry) createLocked(appID types.AppID, initialData any, opts ...CreateOption) (string, error) {
	if !r.knownLocked(appID) {
		return "", &types.UnknownAppError{AppID: appID}
	}

	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	instanceID := cfg.id
	if instanceID == "" {
		instanceID = r.newID()
	}
	if instanceID == "" {
		return "", ErrInvalidInstanceID
	}
	if _, exists := r.instances[instanceID]; exists {
		return "", ErrInstanceExists
	}

	r.seq++
	inst := &types.Instance{
		InstanceID:  instanceID,
		AppID:       appID,
		IsOpen:      true,
		InitialData: initialData,
		Title:       cfg.title,
		Position:    copyPosition(cfg.position),
		Size:        copySize(cfg.size),
		CreatedAt:   r.now(),
		Sequence:    r.seq,
	}

	r.instances[instanceID] = inst
	r.order = append(r.order, instanceID)

	if cfg.minimized {
		inst.IsMinimized = true
	} else {
		r.focusLocked(inst)
	}

	if r.metrics != nil {
		r.metrics.IncInstancesCreated(string(appID))
	}
	r.logger.Debug("Instance created",
		zap.String("instance_id", instanceID),
		zap.String("app_id", string(appID)),
		zap.Bool("minimized", cfg.minimized),
	)
	return instanceID, nil
}

func (r *Registry) knownLocked(appID types.AppID) bool {
	if r.catalog == nil {
		return appID.Known()
	}
	return r.catalog.Has(appID)
}

// closeLocked removes an instance and repairs foreground (must hold lock)
func (r *Registry) closeLocked(instanceID string) bool {
	inst, ok := r.instances[instanceID]
	if !ok {
		return false
	}

	wasForeground := inst.IsForeground
	inst.IsOpen = false
	inst.IsForeground = false

	delete(r.instances, instanceID)
	delete(r.lastFocus, instanceID)
	r.removeFromOrderLocked(instanceID)

	if wasForeground {
		r.promoteLocked()
	}

	if r.metrics != nil {
		r.metrics.IncInstancesClosed(string(inst.AppID))
	}
	r.logger.Debug("Instance closed",
		zap.String("instance_id", instanceID),
		zap.String("app_id", string(inst.AppID)),
		zap.Bool("was_foreground", wasForeground),
	)
	return true
}

func (r *Registry) updateGeometryLocked(instanceID string, pos *types.Position, size *types.Size) bool {
	inst, ok := r.instances[instanceID]
	if !ok || (pos == nil && size == nil) {
		return false
	}
	if pos != nil {
		inst.Position = copyPosition(pos)
	}
	if size != nil {
		inst.Size = copySize(size)
	}
	return true
}

func (r *Registry) updateDataLocked(instanceID string, initialData any) bool {
	inst, ok := r.instances[instanceID]
	if !ok {
		return false
	}
	inst.InitialData = initialData
	return true
}

func (r *Registry) setTitleLocked(instanceID, title string) bool {
	inst, ok := r.instances[instanceID]
	if !ok || inst.Title == title {
		return false
	}
	inst.Title = title
	return true
}

func (r *Registry) minimizeLocked(instanceID string) bool {
	inst, ok := r.instances[instanceID]
	if !ok || inst.IsMinimized {
		return false
	}

	wasForeground := inst.IsForeground
	inst.IsMinimized = true
	inst.IsForeground = false
	if wasForeground {
		r.promoteLocked()
	}
	return true
}

func (r *Registry) restoreLocked(instanceID string) bool {
	return r.bringToForegroundLocked(instanceID)
}

func (r *Registry) listLocked() []types.Instance {
	out := make([]types.Instance, 0, len(r.order))
	for _, instanceID := range r.order {
		out = append(out, copyInstance(r.instances[instanceID]))
	}
	return out
}

func (r *Registry) snapshotLocked() types.Snapshot {
	snap := types.Snapshot{
		Instances:     make(map[string]types.Instance, len(r.instances)),
		InstanceOrder: make([]string, len(r.order)),
		Version:       r.version,
	}
	copy(snap.InstanceOrder, r.order)
	for instanceID, inst := range r.instances {
		snap.Instances[instanceID] = copyInstance(inst)
	}
	return snap
}

// siblingsLocked returns open instances of appID sorted by creation time, then sequence
func (r *Registry) siblingsLocked(appID types.AppID) []*types.Instance {
	var sibs []*types.Instance
	for _, inst := range r.instances {
		if inst.AppID == appID && inst.IsOpen {
			sibs = append(sibs, inst)
		}
	}
	sort.Slice(sibs, func(i, j int) bool {
		if !sibs[i].CreatedAt.Equal(sibs[j].CreatedAt) {
			return sibs[i].CreatedAt.Before(sibs[j].CreatedAt)
		}
		return sibs[i].Sequence < sibs[j].Sequence
	})
	return sibs
}

// mostRecentLocked picks the most recently foregrounded open instance of appID
func (r *Registry) mostRecentLocked(appID types.AppID) (*types.Instance, bool) {
	var best *types.Instance
	for _, inst := range r.siblingsLocked(appID) {
		if best == nil {
			best = inst
			continue
		}
		bf, f := r.lastFocus[best.InstanceID], r.lastFocus[inst.InstanceID]
		if f > bf || (f == bf && inst.Sequence > best.Sequence) {
			best = inst
		}
	}
	return best, best != nil
}

func (r *Registry) removeFromOrderLocked(instanceID string) {
	for i, oid := range r.order {
		if oid == instanceID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func copyInstance(inst *types.Instance) types.Instance {
	out := *inst
	out.Position = copyPosition(inst.Position)
	out.Size = copySize(inst.Size)
	return out
}

func copyPosition(p *types.Position) *types.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copySize(s *types.Size) *types.Size {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
