package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/filesystem"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// SwitchOptions controls Switch.
type SwitchOptions struct {
	// Workspace also activates the virtual desktop linked to the target.
	Workspace bool
}

// Switch makes profile id the active desktop. Once started the switch runs
// to completion or to its first hard failure, even if ctx is cancelled.
func (o *Orchestrator) Switch(ctx context.Context, id int, opts SwitchOptions) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.switchLocked(context.WithoutCancel(ctx), id, opts)
}

// SwitchToPosition switches to the n-th profile (1-based) in display order
// with the workspace variant. Selecting the active profile does nothing.
func (o *Orchestrator) SwitchToPosition(ctx context.Context, n int) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	st := o.store.Load(ctx)
	if n < 1 || n > len(st.Profiles) {
		return Result{}, domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no desktop profile at position %d", n), domainErrors.ErrProfileNotFound)
	}

	id := st.Profiles[n-1].ID
	if st.IsActive(id) {
		return Result{Operation: history.OpSwitch, FromID: id, ToID: id, Skipped: true}, nil
	}
	return o.switchLocked(ctx, id, SwitchOptions{Workspace: true})
}

func (o *Orchestrator) switchLocked(ctx context.Context, id int, opts SwitchOptions) (res Result, err error) {
	st := o.store.Load(ctx)
	res = Result{Operation: history.OpSwitch, FromID: st.ActiveID, ToID: id}

	ctx = logging.WithOperation(ctx, history.OpSwitch)
	ctx = logging.WithProfileID(ctx, id)
	ctx, obs := o.observer.StartOperation(ctx, history.OpSwitch, st.ActiveID, id)
	defer func() {
		obs.Finish(ctx, res.Status(err), res.Warnings(), err)
	}()

	if _, ok := st.Find(id); !ok {
		return res, notFound(id)
	}
	target := o.store.FolderPath(id)
	if !filesystem.DirExists(target) {
		return res, missingFolder(id, target)
	}

	if st.ActiveID > 0 && st.ActiveID != id {
		o.captureStep(ctx, obs, &res, o.store.FolderPath(st.ActiveID))
	}

	if err := o.redirectStep(ctx, obs, &res, target); err != nil {
		return res, err
	}

	if opts.Workspace {
		if k, linked := st.LinkedIndex(id); linked {
			o.slotStep(ctx, obs, &res, k)
		}
	}

	st.ActiveID = id
	if err := o.persistStep(ctx, obs, &res, st); err != nil {
		return res, err
	}

	o.restoreStep(ctx, obs, &res, target)
	return res, nil
}

// RestoreOriginal points the Desktop back at the unmanaged original folder.
func (o *Orchestrator) RestoreOriginal(ctx context.Context) (res Result, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	st := o.store.Load(ctx)
	res = Result{Operation: history.OpRestore, FromID: st.ActiveID, ToID: profile.OriginalID}

	ctx = logging.WithOperation(ctx, history.OpRestore)
	ctx, obs := o.observer.StartOperation(ctx, history.OpRestore, st.ActiveID, profile.OriginalID)
	defer func() {
		obs.Finish(ctx, res.Status(err), res.Warnings(), err)
	}()

	if st.OriginalPath == "" {
		return res, domainErrors.NewError(domainErrors.CodeValidation,
			"original desktop path is unknown", domainErrors.ErrNoOriginalPath)
	}

	if st.ActiveID > 0 {
		o.captureStep(ctx, obs, &res, o.store.FolderPath(st.ActiveID))
	}

	if err := o.redirectStep(ctx, obs, &res, st.OriginalPath); err != nil {
		return res, err
	}

	st.ActiveID = profile.OriginalID
	if err := o.persistStep(ctx, obs, &res, st); err != nil {
		return res, err
	}
	return res, nil
}

// Recover reconciles the state with the live Desktop folder at startup.
// When the Desktop points at a managed folder that no longer exists it is
// redirected back to the original; when it points at an existing profile
// folder that is not recorded as active, the state is updated to match.
// It reports whether anything changed.
func (o *Orchestrator) Recover(ctx context.Context) (changed bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	live, err := o.redirector.CurrentPath(ctx)
	if err != nil {
		return false, err
	}
	if !o.guard.Contains(live) {
		return false, nil
	}

	st := o.store.Load(ctx)

	if filesystem.DirExists(live) {
		id, ok := o.profileForFolder(&st, live)
		if !ok || st.ActiveID == id {
			return false, nil
		}
		o.logger.WarnContext(ctx, "active profile out of sync with desktop folder", "recorded", st.ActiveID, "live", id)
		st.ActiveID = id
		if err := o.store.Save(ctx, st); err != nil {
			return false, err
		}
		return true, nil
	}

	res := Result{Operation: history.OpRecover, FromID: st.ActiveID, ToID: profile.OriginalID}
	ctx, obs := o.observer.StartOperation(ctx, history.OpRecover, st.ActiveID, profile.OriginalID)
	defer func() {
		obs.Finish(ctx, res.Status(err), res.Warnings(), err)
	}()

	o.logger.WarnContext(ctx, "desktop points at a missing profile folder", "path", live)
	if st.OriginalPath == "" {
		return false, domainErrors.NewError(domainErrors.CodeValidation,
			"desktop folder is missing and the original path is unknown", domainErrors.ErrNoOriginalPath)
	}
	if err := o.redirectStep(ctx, obs, &res, st.OriginalPath); err != nil {
		return false, err
	}

	st.ActiveID = profile.OriginalID
	if err := o.persistStep(ctx, obs, &res, st); err != nil {
		return true, err
	}
	return true, nil
}

// profileForFolder maps <root>/Desktop<id> back to a known profile id.
func (o *Orchestrator) profileForFolder(st *profile.State, path string) (int, bool) {
	base := filepath.Base(filepath.Clean(path))
	if len(base) <= len(profile.FolderPrefix) || !strings.EqualFold(base[:len(profile.FolderPrefix)], profile.FolderPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(base[len(profile.FolderPrefix):])
	if err != nil {
		return 0, false
	}
	if _, ok := st.Find(id); !ok {
		return 0, false
	}
	if !strings.EqualFold(filepath.Clean(o.store.FolderPath(id)), filepath.Clean(path)) {
		return 0, false
	}
	return id, true
}

func (o *Orchestrator) captureStep(ctx context.Context, obs OperationObserver, res *Result, folder string) {
	end := obs.StartStep(ctx, StepCaptureLayout, true)
	err := o.captureTo(ctx, folder)
	end(err)
	res.record(StepCaptureLayout, true, err)
}

func (o *Orchestrator) redirectStep(ctx context.Context, obs OperationObserver, res *Result, path string) error {
	end := obs.StartStep(ctx, StepRedirect, false)
	err := o.redirector.Redirect(ctx, path)
	end(err)
	res.record(StepRedirect, false, err)
	return err
}

func (o *Orchestrator) slotStep(ctx context.Context, obs OperationObserver, res *Result, index int) {
	end := obs.StartStep(ctx, StepSwitchSlot, true)
	var err error
	if o.slots == nil {
		err = domainErrors.NewError(domainErrors.CodeUnsupported, "virtual desktops are not available", domainErrors.ErrUnsupportedPlatform)
	} else if err = o.slots.EnsureSlotsExist(ctx, index+1); err == nil {
		err = o.slots.GoTo(ctx, index)
	}
	end(err)
	res.record(StepSwitchSlot, true, err)
}

func (o *Orchestrator) persistStep(ctx context.Context, obs OperationObserver, res *Result, st profile.State) error {
	end := obs.StartStep(ctx, StepPersist, false)
	err := o.store.Save(ctx, st)
	end(err)
	res.record(StepPersist, false, err)
	if err == nil {
		return nil
	}

	res.Drift = true
	o.logger.ErrorContext(ctx, "desktop redirected but state not saved", "active", st.ActiveID, "error", err)
	return domainErrors.NewError(domainErrors.CodeStorage, "desktop redirected but workspace state could not be saved", err)
}

func (o *Orchestrator) restoreStep(ctx context.Context, obs OperationObserver, res *Result, folder string) {
	end := obs.StartStep(ctx, StepRestoreLayout, true)
	err := retry.Sleep(ctx, o.restoreSettle)
	if err == nil {
		err = o.layouts.Apply(ctx, o.layouts.Read(folder))
	}
	end(err)
	res.record(StepRestoreLayout, true, err)
}

// captureTo reads the live icon positions and saves them into folder. An
// empty capture leaves the saved layout alone: the shell reports no items
// while it repopulates or restarts.
func (o *Orchestrator) captureTo(ctx context.Context, folder string) error {
	l, err := o.layouts.Capture(ctx)
	if err != nil {
		return err
	}
	if l.IsEmpty() {
		o.logger.InfoContext(ctx, "empty capture, keeping saved layout", "folder", folder)
		return nil
	}
	return o.layouts.Write(folder, l)
}
