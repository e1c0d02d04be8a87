package workspace

import (
	"context"
	"fmt"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// SaveLayout captures the current icon positions into profile id's folder.
func (o *Orchestrator) SaveLayout(ctx context.Context, id int) (layout.Layout, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.saveLayoutLocked(ctx, id)
}

// ForceSaveLayout waits briefly for the shell to settle, then saves.
func (o *Orchestrator) ForceSaveLayout(ctx context.Context, id int) (layout.Layout, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := retry.Sleep(ctx, o.forceSaveDelay); err != nil {
		return layout.Layout{}, err
	}
	return o.saveLayoutLocked(ctx, id)
}

func (o *Orchestrator) saveLayoutLocked(ctx context.Context, id int) (layout.Layout, error) {
	folder, err := o.profileFolder(ctx, id)
	if err != nil {
		return layout.Layout{}, err
	}

	l, err := o.layouts.Capture(ctx)
	if err != nil {
		return layout.Layout{}, err
	}
	if err := o.layouts.Write(folder, l); err != nil {
		return layout.Layout{}, err
	}

	o.logger.InfoContext(ctx, "layout saved", "id", id, "icons", l.Len())
	return l, nil
}

// RestoreLayout applies profile id's saved layout to the desktop.
func (o *Orchestrator) RestoreLayout(ctx context.Context, id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	folder, err := o.profileFolder(ctx, id)
	if err != nil {
		return err
	}
	return o.layouts.Apply(ctx, o.layouts.Read(folder))
}

// GetLayout returns profile id's saved layout.
func (o *Orchestrator) GetLayout(ctx context.Context, id int) (layout.Layout, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	folder, err := o.profileFolder(ctx, id)
	if err != nil {
		return layout.Layout{}, err
	}
	return o.layouts.Read(folder), nil
}

// DisableAutoArrange turns off auto-arrange and snap-to-grid on the desktop.
func (o *Orchestrator) DisableAutoArrange(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.layouts.DisableAutoArrange(ctx)
}

// AutosaveActive captures the active profile's layout. It does nothing
// while the original desktop is active.
func (o *Orchestrator) AutosaveActive(ctx context.Context) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load(ctx)
	if st.ActiveID == profile.OriginalID {
		return nil
	}

	ctx, obs := o.observer.StartOperation(ctx, history.OpAutosave, st.ActiveID, st.ActiveID)
	defer func() {
		obs.Finish(ctx, statusOf(err), nil, err)
	}()

	folder := o.store.FolderPath(st.ActiveID)
	if !filesystem.DirExists(folder) {
		return missingFolder(st.ActiveID, folder)
	}
	return o.captureTo(ctx, folder)
}

// profileFolder returns the folder of a known profile whose folder exists.
func (o *Orchestrator) profileFolder(ctx context.Context, id int) (string, error) {
	st := o.store.Load(ctx)
	if _, ok := st.Find(id); !ok {
		return "", notFound(id)
	}
	folder := o.store.FolderPath(id)
	if !filesystem.DirExists(folder) {
		return "", missingFolder(id, folder)
	}
	return folder, nil
}

func missingFolder(id int, folder string) error {
	return domainErrors.NewError(domainErrors.CodeNotFound,
		fmt.Sprintf("folder of desktop profile %d is missing: %s", id, folder), domainErrors.ErrFolderMissing)
}
