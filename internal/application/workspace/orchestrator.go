// Package workspace sequences desktop profile operations: folder
// redirection, virtual desktop switching and icon layout save and restore.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/security"
)

// LayoutCodec captures, applies and persists icon layouts.
type LayoutCodec interface {
	Capture(ctx context.Context) (layout.Layout, error)
	Apply(ctx context.Context, l layout.Layout) error
	DisableAutoArrange(ctx context.Context) error
	Read(folder string) layout.Layout
	Write(folder string, l layout.Layout) error
}

// FolderRedirector points the OS Desktop folder somewhere else.
type FolderRedirector interface {
	Redirect(ctx context.Context, path string) error
	CurrentPath(ctx context.Context) (string, error)
}

// SlotSwitcher moves the user between virtual desktops.
type SlotSwitcher interface {
	EnsureSlotsExist(ctx context.Context, n int) error
	GoTo(ctx context.Context, index int) error
}

// Config wires an Orchestrator.
type Config struct {
	Store      ports.StateStore
	Layouts    LayoutCodec
	Redirector FolderRedirector
	Slots      SlotSwitcher
	Observer   Observer

	MaxProfiles    int
	RestoreSettle  time.Duration // Pause before restoring icons after a switch
	ForceSaveDelay time.Duration // Pause before a forced layout save

	Logger *logging.Logger
}

// Orchestrator serializes every workspace operation behind one lock. The
// state document is re-read at the start of each operation.
type Orchestrator struct {
	mu sync.Mutex

	store      ports.StateStore
	layouts    LayoutCodec
	redirector FolderRedirector
	slots      SlotSwitcher
	observer   Observer
	guard      *security.PathGuard

	maxProfiles    int
	restoreSettle  time.Duration
	forceSaveDelay time.Duration

	logger *logging.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if cfg.Layouts == nil {
		return nil, fmt.Errorf("layout codec is required")
	}
	if cfg.Redirector == nil {
		return nil, fmt.Errorf("redirector is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	maxProfiles := cfg.MaxProfiles
	if maxProfiles <= 0 {
		maxProfiles = profile.DefaultMaxProfiles
	}

	return &Orchestrator{
		store:          cfg.Store,
		layouts:        cfg.Layouts,
		redirector:     cfg.Redirector,
		slots:          cfg.Slots,
		observer:       observer,
		guard:          security.NewPathGuard(cfg.Store.Root()),
		maxProfiles:    maxProfiles,
		restoreSettle:  cfg.RestoreSettle,
		forceSaveDelay: cfg.ForceSaveDelay,
		logger:         logger.With("component", "orchestrator"),
	}, nil
}

// List returns every profile in display order.
func (o *Orchestrator) List(ctx context.Context) []profile.View {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	views := make([]profile.View, 0, len(st.Profiles))
	for _, p := range st.Profiles {
		views = append(views, o.view(&st, p))
	}
	return views
}

// Get returns one profile.
func (o *Orchestrator) Get(ctx context.Context, id int) (profile.View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	p, ok := st.Find(id)
	if !ok {
		return profile.View{}, notFound(id)
	}
	return o.view(&st, p), nil
}

// Active returns the active profile. The second result is false while the
// original desktop is active.
func (o *Orchestrator) Active(ctx context.Context) (profile.View, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	p, ok := st.Find(st.ActiveID)
	if !ok {
		return profile.View{}, false
	}
	return o.view(&st, p), true
}

// OriginalPath returns the remembered unmanaged Desktop folder.
func (o *Orchestrator) OriginalPath(ctx context.Context) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.store.Load(ctx).OriginalPath
}

// Create adds a profile with the next id and an empty folder.
func (o *Orchestrator) Create(ctx context.Context) (view profile.View, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	ctx, obs := o.observer.StartOperation(ctx, history.OpCreate, st.ActiveID, st.NextID())
	defer func() {
		obs.Finish(ctx, statusOf(err), nil, err)
	}()

	p, err := st.Add(o.maxProfiles)
	if err != nil {
		return profile.View{}, domainErrors.NewError(domainErrors.CodeConflict,
			fmt.Sprintf("maximum of %d desktop profiles reached", o.maxProfiles), err)
	}

	folder := o.store.FolderPath(p.ID)
	existed := filesystem.DirExists(folder)
	if err := filesystem.EnsureDir(folder); err != nil {
		return profile.View{}, domainErrors.NewError(domainErrors.CodeStorage, "could not create profile folder", err)
	}
	if err := o.store.Save(ctx, st); err != nil {
		if !existed {
			if rmErr := os.Remove(folder); rmErr != nil {
				o.logger.WarnContext(ctx, "could not remove folder of unsaved profile", "folder", folder, "error", rmErr)
			}
		}
		return profile.View{}, err
	}

	o.logger.InfoContext(ctx, "profile created", "id", p.ID, "folder", folder)
	return o.view(&st, p), nil
}

// DeleteOptions controls Delete.
type DeleteOptions struct {
	// Purge also removes the profile folder and its contents.
	Purge bool
}

// Delete removes a profile. The active profile and the last profile are
// never deleted. The folder is kept unless opts.Purge is set.
func (o *Orchestrator) Delete(ctx context.Context, id int, opts DeleteOptions) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	ctx, obs := o.observer.StartOperation(ctx, history.OpDelete, st.ActiveID, id)
	defer func() {
		obs.Finish(ctx, statusOf(err), nil, err)
	}()

	if err := st.Remove(id); err != nil {
		return removeError(id, err)
	}

	folder := o.store.FolderPath(id)
	if opts.Purge {
		if err := o.guard.ValidateForDeletion(folder); err != nil {
			return domainErrors.NewError(domainErrors.CodeValidation, "refusing to remove "+folder, err)
		}
	}

	if err := o.store.Save(ctx, st); err != nil {
		return err
	}

	if opts.Purge {
		if err := os.RemoveAll(folder); err != nil {
			return domainErrors.NewError(domainErrors.CodeStorage, "profile deleted but folder could not be removed", err)
		}
	}

	o.logger.InfoContext(ctx, "profile deleted", "id", id, "purged", opts.Purge)
	return nil
}

// Rename changes a profile's display name.
func (o *Orchestrator) Rename(ctx context.Context, id int, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	if err := st.Rename(id, name); err != nil {
		if errors.Is(err, domainErrors.ErrProfileNotFound) {
			return notFound(id)
		}
		return domainErrors.NewError(domainErrors.CodeValidation, "profile name must not be blank", err)
	}
	return o.store.Save(ctx, st)
}

// Link associates a profile with a virtual desktop slot identifier.
func (o *Orchestrator) Link(ctx context.Context, id int, slot string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if slot == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "slot identifier must not be empty", nil)
	}

	st := o.store.Load(ctx)
	if err := st.Link(id, slot); err != nil {
		return notFound(id)
	}
	return o.store.Save(ctx, st)
}

// Unlink drops a profile's slot association.
func (o *Orchestrator) Unlink(ctx context.Context, id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	if _, ok := st.Find(id); !ok {
		return notFound(id)
	}
	st.Unlink(id)
	return o.store.Save(ctx, st)
}

// Links returns a copy of the profile to slot associations.
func (o *Orchestrator) Links(ctx context.Context) map[int]string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.store.Load(ctx).Clone().Links
}

func (o *Orchestrator) view(st *profile.State, p profile.Profile) profile.View {
	path := o.store.FolderPath(p.ID)
	return profile.View{
		ID:        p.ID,
		Name:      p.Name,
		Path:      path,
		IsActive:  st.IsActive(p.ID),
		FileCount: o.store.CountEntries(path),
		Slot:      st.Links[p.ID],
	}
}

func notFound(id int) error {
	return domainErrors.NewError(domainErrors.CodeNotFound,
		fmt.Sprintf("desktop profile %d not found", id), domainErrors.ErrProfileNotFound)
}

func removeError(id int, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrProfileNotFound):
		return notFound(id)
	case errors.Is(err, domainErrors.ErrActiveProfile):
		return domainErrors.NewError(domainErrors.CodeConflict,
			fmt.Sprintf("desktop profile %d is active; switch away first", id), err)
	case errors.Is(err, domainErrors.ErrLastProfile):
		return domainErrors.NewError(domainErrors.CodeConflict,
			fmt.Sprintf("desktop profile %d is the last one", id), err)
	default:
		return err
	}
}

func statusOf(err error) string {
	if err != nil {
		return history.StatusFailed
	}
	return history.StatusOK
}
