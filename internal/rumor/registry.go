package rumor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/semaphore"

	"rumormill/internal/logging"
)

// Lock acquisition bounds mirroring the controller firmware: regular
// operations wait up to 500ms before reporting ErrBusy, while the startup
// load uses a tighter bound so a wedged registry cannot stall boot. Callers
// can override either bound by passing a context that already carries a
// deadline.
const (
	DefaultLockWait = 500 * time.Millisecond
	LoadLockWait    = 200 * time.Millisecond
)

// Store persists registry snapshots. Implementations must treat the slice
// passed to Save as read-only.
type Store interface {
	Save(ctx context.Context, rumors []Rumor) error
	Load(ctx context.Context) ([]Rumor, error)
}

// Stats summarizes registry state for status surfaces.
type Stats struct {
	Total     int  `json:"total"`
	Eligible  int  `json:"eligible"`
	StorageOK bool `json:"storage_ok"`
}

// Registry owns the authoritative in-memory rumor list. A weighted
// semaphore of size one serializes every operation; waiters give up when
// their context expires, keeping lock acquisition bounded.
type Registry struct {
	gate   *semaphore.Weighted
	store  Store
	logger *slog.Logger

	rumors    []Rumor
	lastID    int64
	saveOK    bool
	onSaveErr func(error)
}

// NewRegistry creates an empty registry persisting through store.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	return &Registry{
		gate:   semaphore.NewWeighted(1),
		store:  store,
		logger: logging.NewComponentLogger(logger, "registry"),
		saveOK: true,
	}
}

// OnPersistFailure registers a hook invoked whenever a snapshot save fails.
// Set it before the registry is shared between goroutines.
func (r *Registry) OnPersistFailure(fn func(error)) {
	r.onSaveErr = fn
}

// acquire takes the registry lock, applying wait as the acquisition bound
// when the caller's context carries no deadline of its own.
func (r *Registry) acquire(ctx context.Context, wait time.Duration) (func(), error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire registry lock: %w", ErrBusy)
	}
	return func() { r.gate.Release(1) }, nil
}

// Load replaces the in-memory list with the stored snapshot. Storage
// failures leave the registry empty and usable; the daemon reports the
// error and keeps running.
func (r *Registry) Load(ctx context.Context) error {
	release, err := r.acquire(ctx, LoadLockWait)
	if err != nil {
		return err
	}
	defer release()

	loaded, err := r.store.Load(ctx)
	if err != nil {
		r.rumors = nil
		return fmt.Errorf("load rumors: %w", err)
	}
	r.rumors = loaded
	r.logger.Info("loaded rumors", logging.Int("count", len(loaded)))
	return nil
}

// List returns the rumors whose people list matches filter, in insertion
// order. An empty filter returns everything. The returned slice is a copy.
func (r *Registry) List(ctx context.Context, filter string) ([]Rumor, error) {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	matched := make([]Rumor, 0, len(r.rumors))
	for _, rum := range r.rumors {
		if rum.MatchesPerson(filter) {
			matched = append(matched, rum)
		}
	}
	return matched, nil
}

// Create validates the payload, assigns the next free id, and appends the
// rumor. Missing required fields surface as ErrInvalidInput.
func (r *Registry) Create(ctx context.Context, patch Patch) (Rumor, error) {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return Rumor{}, err
	}
	defer release()

	if !patch.complete() {
		return Rumor{}, fmt.Errorf("create rumor: missing fields: %w", ErrInvalidInput)
	}

	created := Rumor{
		ID:        r.nextID(),
		MaxPrints: DefaultMaxPrints,
	}
	patch.applyTo(&created)

	r.rumors = append(r.rumors, created)
	r.persist(ctx, "create")
	return created, nil
}

// Update merges the non-nil patch fields into the rumor with the given id.
func (r *Registry) Update(ctx context.Context, id int64, patch Patch) (Rumor, error) {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return Rumor{}, err
	}
	defer release()

	idx := r.indexOf(id)
	if idx < 0 {
		return Rumor{}, fmt.Errorf("update rumor %d: %w", id, ErrNotFound)
	}
	patch.applyTo(&r.rumors[idx])
	r.persist(ctx, "update")
	return r.rumors[idx], nil
}

// Delete removes the rumor with the given id.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return err
	}
	defer release()

	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("delete rumor %d: %w", id, ErrNotFound)
	}
	r.rumors = append(r.rumors[:idx], r.rumors[idx+1:]...)
	r.persist(ctx, "delete")
	return nil
}

// ResetCount zeroes the printed counter of one rumor.
func (r *Registry) ResetCount(ctx context.Context, id int64) error {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return err
	}
	defer release()

	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("reset rumor %d: %w", id, ErrNotFound)
	}
	r.rumors[idx].PrintedCount = 0
	r.persist(ctx, "reset")
	return nil
}

// ResetAllCounts zeroes every printed counter.
func (r *Registry) ResetAllCounts(ctx context.Context) error {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return err
	}
	defer release()

	for i := range r.rumors {
		r.rumors[i].PrintedCount = 0
	}
	r.persist(ctx, "reset_all")
	return nil
}

// SelectEligible picks a uniformly random rumor among those still active
// and under their print allowance, increments its counter, and persists the
// change before returning. ok is false when nothing is eligible.
func (r *Registry) SelectEligible(ctx context.Context) (selected Rumor, ok bool, err error) {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return Rumor{}, false, err
	}
	defer release()

	eligible := make([]int, 0, len(r.rumors))
	for i, rum := range r.rumors {
		if rum.Eligible() {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return Rumor{}, false, nil
	}

	choice := eligible[rand.IntN(len(eligible))]
	r.rumors[choice].PrintedCount++
	r.persist(ctx, "select")
	return r.rumors[choice], true, nil
}

// Stats reports registry counters for the status surfaces. StorageOK is
// false after a failed snapshot save until the next save succeeds.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	release, err := r.acquire(ctx, DefaultLockWait)
	if err != nil {
		return Stats{}, err
	}
	defer release()

	stats := Stats{Total: len(r.rumors), StorageOK: r.saveOK}
	for _, rum := range r.rumors {
		if rum.Eligible() {
			stats.Eligible++
		}
	}
	return stats, nil
}

// persist writes the current list through the store. Failures are logged
// and reported to the failure hook; the in-memory mutation stands either
// way, matching the storage-as-warning contract.
func (r *Registry) persist(ctx context.Context, op string) {
	err := r.store.Save(ctx, r.rumors)
	if err == nil {
		r.saveOK = true
		return
	}
	r.saveOK = false
	logging.WarnWithContext(r.logger, "rumor snapshot save failed", "storage_save_failed",
		logging.String("op", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check state directory permissions and free space"),
		logging.String(logging.FieldImpact, "latest change is held in memory only"),
	)
	if r.onSaveErr != nil {
		r.onSaveErr(err)
	}
}

func (r *Registry) indexOf(id int64) int {
	for i, rum := range r.rumors {
		if rum.ID == id {
			return i
		}
	}
	return -1
}

// nextID returns one past the highest id ever seen this process, so ids
// stay monotonic even when the highest rumor was just deleted. Across
// restarts allocation resumes from the stored snapshot's maximum.
func (r *Registry) nextID() int64 {
	for _, rum := range r.rumors {
		if rum.ID > r.lastID {
			r.lastID = rum.ID
		}
	}
	r.lastID++
	return r.lastID
}
