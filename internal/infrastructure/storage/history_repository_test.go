package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/adapters/sqlite"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sqlite.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	if err := conn.Open(); err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestHistoryRepository_SaveAndList(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []*history.Record{
		{ID: "a", Operation: history.OpCreate, ToID: 1, Status: history.StatusOK, StartedAt: base, Duration: time.Millisecond},
		{ID: "b", Operation: history.OpSwitch, FromID: 0, ToID: 1, Status: history.StatusOK,
			Warnings: []string{"restore_layout: view not ready"}, StartedAt: base.Add(time.Minute), Duration: 2 * time.Second},
		{ID: "c", Operation: history.OpSwitch, FromID: 1, ToID: 2, Status: history.StatusFailed,
			Error: "profile folder missing", StartedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error = %v", r.ID, err)
		}
	}

	all, err := repo.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("List() order = %s,%s,%s; want most recent first", all[0].ID, all[1].ID, all[2].ID)
	}

	b := all[1]
	if len(b.Warnings) != 1 || b.Warnings[0] != "restore_layout: view not ready" {
		t.Errorf("Warnings = %v", b.Warnings)
	}
	if b.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", b.Duration)
	}
	if !b.StartedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("StartedAt = %v", b.StartedAt)
	}
}

func TestHistoryRepository_ListFilters(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, op := range []string{history.OpSwitch, history.OpSwitch, history.OpDelete, history.OpSwitch} {
		status := history.StatusOK
		if i == 1 {
			status = history.StatusDrift
		}
		rec := &history.Record{
			ID:        string(rune('a' + i)),
			Operation: op,
			Status:    status,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter history.Filter
		want   int
	}{
		{"by operation", history.Filter{Operation: history.OpSwitch}, 3},
		{"by status", history.Filter{Status: history.StatusDrift}, 1},
		{"since", history.Filter{Since: base.Add(2 * time.Hour)}, 2},
		{"limit", history.Filter{Limit: 2}, 2},
		{"no match", history.Filter{Operation: history.OpRecover}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) = %d records, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

func TestHistoryRepository_Summarize(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	durations := []time.Duration{time.Second, 3 * time.Second}
	for i, d := range durations {
		rec := &history.Record{
			ID:        string(rune('a' + i)),
			Operation: history.OpSwitch,
			Status:    history.StatusOK,
			StartedAt: base,
			Duration:  d,
		}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Save(ctx, &history.Record{ID: "old", Operation: history.OpSwitch, Status: history.StatusFailed, StartedAt: base.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	sums, err := repo.Summarize(ctx, base)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("Summarize() = %+v, want one group", sums)
	}
	if sums[0].Count != 2 || sums[0].AvgDuration != 2*time.Second {
		t.Errorf("summary = %+v, want count 2 avg 2s", sums[0])
	}
}

func TestHistoryRepository_SaveNil(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t))
	if err := repo.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}
