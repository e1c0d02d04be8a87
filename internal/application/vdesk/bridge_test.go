package vdesk

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
	domainVdesk "github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/logging"
	"github.com/jbctechsolutions/deskflip/internal/infrastructure/retry"
)

// simDriver applies requests immediately unless told to ignore them.
type simDriver struct {
	count   int
	current int
	windows []domainVdesk.Window

	ignoreCreate bool
	ignoreStep   bool

	countCalls int
	creates    int
	removes    int
	steps      []domainVdesk.Direction
	moved      map[uintptr]int
}

func (d *simDriver) Count(ctx context.Context) (int, error) {
	d.countCalls++
	return d.count, nil
}

func (d *simDriver) Current(ctx context.Context) (int, error) { return d.current, nil }

func (d *simDriver) RequestCreate(ctx context.Context) error {
	d.creates++
	if !d.ignoreCreate {
		d.count++
		d.current = d.count - 1
	}
	return nil
}

func (d *simDriver) RequestRemove(ctx context.Context) error {
	d.removes++
	d.count--
	if d.current >= d.count {
		d.current = d.count - 1
	}
	return nil
}

func (d *simDriver) RequestStep(ctx context.Context, dir domainVdesk.Direction) error {
	d.steps = append(d.steps, dir)
	if d.ignoreStep {
		return nil
	}
	next := d.current + int(dir)
	if next >= 0 && next < d.count {
		d.current = next
	}
	return nil
}

func (d *simDriver) WindowSlot(ctx context.Context, hwnd uintptr) (int, error) {
	for _, w := range d.windows {
		if w.Handle == hwnd {
			return w.Slot, nil
		}
	}
	return 0, errors.New("no such window")
}

func (d *simDriver) MoveWindow(ctx context.Context, hwnd uintptr, index int) error {
	if d.moved == nil {
		d.moved = map[uintptr]int{}
	}
	d.moved[hwnd] = index
	return nil
}

func (d *simDriver) Windows(ctx context.Context) ([]domainVdesk.Window, error) {
	return d.windows, nil
}

func newTestBridge(d *simDriver) *Bridge {
	return NewBridge(d, retry.NewPolicy(3, time.Millisecond), logging.Nop())
}

func TestBridge_GoTo(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		current   int
		target    int
		wantSteps int
	}{
		{"right two", 4, 0, 2, 2},
		{"left three", 4, 3, 0, 3},
		{"already there", 3, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &simDriver{count: tt.count, current: tt.current}
			if err := newTestBridge(d).GoTo(context.Background(), tt.target); err != nil {
				t.Fatalf("GoTo() error = %v", err)
			}
			if d.current != tt.target {
				t.Errorf("current = %d, want %d", d.current, tt.target)
			}
			if len(d.steps) != tt.wantSteps {
				t.Errorf("steps = %v, want %d", d.steps, tt.wantSteps)
			}
		})
	}
}

func TestBridge_GoToOutOfRange(t *testing.T) {
	d := &simDriver{count: 2}
	for _, idx := range []int{-1, 2} {
		err := newTestBridge(d).GoTo(context.Background(), idx)
		if !errors.Is(err, domainErrors.ErrSlotOutOfRange) {
			t.Errorf("GoTo(%d) error = %v", idx, err)
		}
	}
	if len(d.steps) != 0 {
		t.Error("out of range GoTo should not step")
	}
}

func TestBridge_GoToStuck(t *testing.T) {
	d := &simDriver{count: 3, ignoreStep: true}
	err := newTestBridge(d).GoTo(context.Background(), 2)
	if domainErrors.CodeOf(err) != domainErrors.CodePlatform {
		t.Errorf("GoTo() error = %v, want PLATFORM", err)
	}
	if len(d.steps) != 1 {
		t.Errorf("should stop after the first step that does not move, steps = %v", d.steps)
	}
}

func TestBridge_CreateSlot(t *testing.T) {
	d := &simDriver{count: 2}
	idx, err := newTestBridge(d).CreateSlot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 || d.count != 3 {
		t.Errorf("CreateSlot() = %d, count %d", idx, d.count)
	}
}

func TestBridge_CreateSlotNoEffect(t *testing.T) {
	d := &simDriver{count: 1, ignoreCreate: true}
	_, err := newTestBridge(d).CreateSlot(context.Background())
	if !errors.Is(err, domainErrors.ErrSlotCreation) {
		t.Errorf("CreateSlot() error = %v, want ErrSlotCreation", err)
	}
}

func TestBridge_RemoveCurrentSlot(t *testing.T) {
	d := &simDriver{count: 1}
	if err := newTestBridge(d).RemoveCurrentSlot(context.Background()); !errors.Is(err, domainErrors.ErrLastSlot) {
		t.Errorf("RemoveCurrentSlot() on last = %v", err)
	}
	if d.removes != 0 {
		t.Error("last desktop removal was requested")
	}

	d = &simDriver{count: 3, current: 2}
	if err := newTestBridge(d).RemoveCurrentSlot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.count != 2 {
		t.Errorf("count = %d, want 2", d.count)
	}
}

func TestBridge_EnsureSlotsExist(t *testing.T) {
	t.Run("already enough", func(t *testing.T) {
		d := &simDriver{count: 3}
		if err := newTestBridge(d).EnsureSlotsExist(context.Background(), 2); err != nil {
			t.Fatal(err)
		}
		if d.creates != 0 || d.countCalls != 1 {
			t.Errorf("creates = %d, count calls = %d; want only one Count", d.creates, d.countCalls)
		}
	})

	t.Run("creates missing", func(t *testing.T) {
		d := &simDriver{count: 1}
		b := newTestBridge(d)
		if err := b.EnsureSlotsExist(context.Background(), 3); err != nil {
			t.Fatal(err)
		}
		if d.count != 3 || d.creates != 2 {
			t.Errorf("count = %d, creates = %d", d.count, d.creates)
		}

		d.countCalls, d.creates = 0, 0
		if err := b.EnsureSlotsExist(context.Background(), 3); err != nil {
			t.Fatal(err)
		}
		if d.creates != 0 || d.countCalls != 1 {
			t.Error("second EnsureSlotsExist should not create")
		}
	})

	t.Run("creation fails", func(t *testing.T) {
		d := &simDriver{count: 1, ignoreCreate: true}
		err := newTestBridge(d).EnsureSlotsExist(context.Background(), 2)
		if !errors.Is(err, domainErrors.ErrSlotCreation) {
			t.Errorf("error = %v, want ErrSlotCreation", err)
		}
	})
}

func TestBridge_SwitchLeftRight(t *testing.T) {
	d := &simDriver{count: 2, current: 0}
	b := newTestBridge(d)
	ctx := context.Background()

	if err := b.SwitchLeft(ctx); err != nil {
		t.Fatal(err)
	}
	if len(d.steps) != 0 {
		t.Error("SwitchLeft on first desktop should not request a step")
	}
	if err := b.SwitchRight(ctx); err != nil {
		t.Fatal(err)
	}
	if d.current != 1 {
		t.Errorf("current = %d, want 1", d.current)
	}
	if err := b.SwitchRight(ctx); err != nil {
		t.Fatal(err)
	}
	if len(d.steps) != 1 {
		t.Errorf("steps = %v, want one", d.steps)
	}
}

func TestBridge_Windows(t *testing.T) {
	d := &simDriver{
		count:   2,
		current: 1,
		windows: []domainVdesk.Window{
			{Handle: 1, Title: "Editor", Slot: 0},
			{Handle: 2, Title: "", Slot: 1},
			{Handle: 3, Title: "Browser", Slot: 1},
		},
	}
	b := newTestBridge(d)
	ctx := context.Background()

	all, err := b.EnumerateVisibleWindows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("EnumerateVisibleWindows() = %+v, want titled windows only", all)
	}

	cur, err := b.WindowsOnCurrentSlot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cur) != 1 || cur[0].Handle != 3 {
		t.Errorf("WindowsOnCurrentSlot() = %+v", cur)
	}

	on, err := b.IsOnCurrentSlot(ctx, 1)
	if err != nil || on {
		t.Errorf("IsOnCurrentSlot(1) = %v, %v", on, err)
	}
	slot, err := b.SlotContaining(ctx, 3)
	if err != nil || slot != 1 {
		t.Errorf("SlotContaining(3) = %d, %v", slot, err)
	}
}

func TestBridge_MoveWindow(t *testing.T) {
	d := &simDriver{count: 2}
	b := newTestBridge(d)

	if err := b.MoveWindow(context.Background(), 9, 5); !errors.Is(err, domainErrors.ErrSlotOutOfRange) {
		t.Errorf("MoveWindow(out of range) = %v", err)
	}
	if err := b.MoveWindow(context.Background(), 9, 1); err != nil {
		t.Fatal(err)
	}
	if d.moved[9] != 1 {
		t.Errorf("moved = %v", d.moved)
	}
}
