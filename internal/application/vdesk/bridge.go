// Package vdesk sequences native virtual desktop requests and waits for
// them to take effect.
package vdesk

import (
	"context"
	"fmt"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	domainVdesk "github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// Bridge drives a VirtualDesktopDriver. Requests to the driver are
// fire-and-forget, so every change is confirmed by polling.
type Bridge struct {
	driver ports.VirtualDesktopDriver
	poll   retry.Policy
	logger *logging.Logger
}

// NewBridge creates a Bridge. poll bounds each wait for a slot change.
func NewBridge(driver ports.VirtualDesktopDriver, poll retry.Policy, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.Default()
	}
	b := &Bridge{
		driver: driver,
		poll:   poll,
		logger: logger.With("component", "vdesk_bridge"),
	}
	if b.poll.OnRetry == nil {
		b.poll.OnRetry = func(_ error, next time.Duration) {
			logging.LogShellRetry(context.Background(), b.logger, "virtual desktop", next)
		}
	}
	return b
}

// SlotCount returns the number of virtual desktops.
func (b *Bridge) SlotCount(ctx context.Context) (int, error) {
	return b.driver.Count(ctx)
}

// CurrentSlot returns the zero-based index of the active desktop.
func (b *Bridge) CurrentSlot(ctx context.Context) (int, error) {
	return b.driver.Current(ctx)
}

// GoTo activates the desktop at index by stepping towards it.
func (b *Bridge) GoTo(ctx context.Context, index int) error {
	count, err := b.driver.Count(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= count {
		return domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("virtual desktop %d out of range (have %d)", index, count),
			domainErrors.ErrSlotOutOfRange)
	}

	current, err := b.driver.Current(ctx)
	if err != nil {
		return err
	}

	for steps := 0; current != index && steps < count; steps++ {
		dir := domainVdesk.Right
		if index < current {
			dir = domainVdesk.Left
		}
		if current, err = b.step(ctx, current, dir); err != nil {
			return err
		}
	}

	if current != index {
		return domainErrors.NewError(domainErrors.CodePlatform,
			fmt.Sprintf("virtual desktop switch stopped at %d, wanted %d", current, index), nil)
	}
	b.logger.DebugContext(ctx, "virtual desktop activated", "index", index)
	return nil
}

// SwitchLeft activates the previous desktop. It is a no-op on the first.
func (b *Bridge) SwitchLeft(ctx context.Context) error {
	return b.switchDir(ctx, domainVdesk.Left)
}

// SwitchRight activates the next desktop. It is a no-op on the last.
func (b *Bridge) SwitchRight(ctx context.Context) error {
	return b.switchDir(ctx, domainVdesk.Right)
}

func (b *Bridge) switchDir(ctx context.Context, dir domainVdesk.Direction) error {
	count, err := b.driver.Count(ctx)
	if err != nil {
		return err
	}
	current, err := b.driver.Current(ctx)
	if err != nil {
		return err
	}

	target := current + int(dir)
	if target < 0 || target >= count {
		return nil
	}
	_, err = b.step(ctx, current, dir)
	return err
}

// step requests one move and waits for the current index to change.
func (b *Bridge) step(ctx context.Context, from int, dir domainVdesk.Direction) (int, error) {
	if err := b.driver.RequestStep(ctx, dir); err != nil {
		return from, err
	}

	now := from
	changed := b.poll.Wait(ctx, func() bool {
		cur, err := b.driver.Current(ctx)
		if err != nil {
			return false
		}
		now = cur
		return cur != from
	})
	if !changed {
		return from, domainErrors.NewError(domainErrors.CodePlatform,
			fmt.Sprintf("virtual desktop did not move %s from %d", dir, from), nil)
	}
	return now, nil
}

// CreateSlot adds a desktop and returns its index.
func (b *Bridge) CreateSlot(ctx context.Context) (int, error) {
	before, err := b.driver.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := b.driver.RequestCreate(ctx); err != nil {
		return 0, err
	}

	after := before
	grew := b.poll.Wait(ctx, func() bool {
		n, err := b.driver.Count(ctx)
		if err != nil {
			return false
		}
		after = n
		return n > before
	})
	if !grew {
		return 0, domainErrors.NewError(domainErrors.CodePlatform,
			fmt.Sprintf("virtual desktop not created (count stayed %d)", after),
			domainErrors.ErrSlotCreation)
	}
	return after - 1, nil
}

// RemoveCurrentSlot closes the active desktop. The last desktop is kept.
func (b *Bridge) RemoveCurrentSlot(ctx context.Context) error {
	before, err := b.driver.Count(ctx)
	if err != nil {
		return err
	}
	if before <= 1 {
		return domainErrors.NewError(domainErrors.CodeConflict, "cannot remove the last virtual desktop", domainErrors.ErrLastSlot)
	}
	if err := b.driver.RequestRemove(ctx); err != nil {
		return err
	}

	shrank := b.poll.Wait(ctx, func() bool {
		n, err := b.driver.Count(ctx)
		return err == nil && n < before
	})
	if !shrank {
		return domainErrors.NewError(domainErrors.CodePlatform,
			fmt.Sprintf("virtual desktop not removed (count stayed %d)", before), nil)
	}
	return nil
}

// EnsureSlotsExist creates desktops until there are at least n.
func (b *Bridge) EnsureSlotsExist(ctx context.Context, n int) error {
	count, err := b.driver.Count(ctx)
	if err != nil {
		return err
	}

	for count < n {
		if _, err := b.CreateSlot(ctx); err != nil {
			return domainErrors.NewError(domainErrors.CodePlatform,
				fmt.Sprintf("wanted %d virtual desktops, have %d", n, count),
				domainErrors.ErrSlotCreation)
		}
		if count, err = b.driver.Count(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SlotContaining returns the index of the desktop hosting hwnd.
func (b *Bridge) SlotContaining(ctx context.Context, hwnd uintptr) (int, error) {
	return b.driver.WindowSlot(ctx, hwnd)
}

// MoveWindow moves hwnd to the desktop at index.
func (b *Bridge) MoveWindow(ctx context.Context, hwnd uintptr, index int) error {
	count, err := b.driver.Count(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= count {
		return domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("virtual desktop %d out of range (have %d)", index, count),
			domainErrors.ErrSlotOutOfRange)
	}
	return b.driver.MoveWindow(ctx, hwnd, index)
}

// EnumerateVisibleWindows lists visible windows that have a title.
func (b *Bridge) EnumerateVisibleWindows(ctx context.Context) ([]domainVdesk.Window, error) {
	all, err := b.driver.Windows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domainVdesk.Window, 0, len(all))
	for _, w := range all {
		if w.Title != "" {
			out = append(out, w)
		}
	}
	return out, nil
}

// IsOnCurrentSlot reports whether hwnd is on the active desktop.
func (b *Bridge) IsOnCurrentSlot(ctx context.Context, hwnd uintptr) (bool, error) {
	slot, err := b.driver.WindowSlot(ctx, hwnd)
	if err != nil {
		return false, err
	}
	current, err := b.driver.Current(ctx)
	if err != nil {
		return false, err
	}
	return slot == current, nil
}

// WindowsOnCurrentSlot lists titled windows on the active desktop.
func (b *Bridge) WindowsOnCurrentSlot(ctx context.Context) ([]domainVdesk.Window, error) {
	current, err := b.driver.Current(ctx)
	if err != nil {
		return nil, err
	}
	all, err := b.EnumerateVisibleWindows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domainVdesk.Window, 0, len(all))
	for _, w := range all {
		if w.Slot == current {
			out = append(out, w)
		}
	}
	return out, nil
}
