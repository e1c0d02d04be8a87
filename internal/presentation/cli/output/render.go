package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jbctechsolutions/deskflip/internal/application/workspace"
	"github.com/jbctechsolutions/deskflip/internal/domain/history"
	"github.com/jbctechsolutions/deskflip/internal/domain/hotkey"
	"github.com/jbctechsolutions/deskflip/internal/domain/layout"
	"github.com/jbctechsolutions/deskflip/internal/domain/profile"
	"github.com/jbctechsolutions/deskflip/internal/domain/vdesk"
)

// Profiles renders the profile list.
func (f *Formatter) Profiles(views []profile.View) error {
	if views == nil {
		views = []profile.View{}
	}
	return f.Emit(views, func() error {
		if len(views) == 0 {
			return f.Info("No desktop profiles. Create one with 'deskflip desktop create'.")
		}
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			mark := ""
			if v.IsActive {
				mark = "*"
			}
			rows = append(rows, []string{mark, strconv.Itoa(v.ID), v.Name, strconv.Itoa(v.FileCount), v.Slot, v.Path})
		}
		return f.Table(TableData{
			Columns: []TableColumn{
				{Header: ""},
				{Header: "ID", Align: AlignRight},
				{Header: "NAME"},
				{Header: "FILES", Align: AlignRight},
				{Header: "SLOT"},
				{Header: "PATH"},
			},
			Rows: rows,
		})
	})
}

// Profile renders a single profile.
func (f *Formatter) Profile(v profile.View) error {
	return f.Emit(v, func() error {
		f.Header(fmt.Sprintf("Desktop %d", v.ID))
		f.Item("Name", v.Name)
		f.Item("Path", v.Path)
		f.Item("Files", strconv.Itoa(v.FileCount))
		f.Item("Active", strconv.FormatBool(v.IsActive))
		if v.Slot != "" {
			f.Item("Slot", v.Slot)
		}
		return nil
	})
}

// Result renders the outcome of a switch-like operation.
func (f *Formatter) Result(res workspace.Result, err error) error {
	rep := res.Report(err)
	return f.Emit(rep, func() error {
		for _, w := range rep.Warnings {
			f.Warning("%s", w)
		}
		switch {
		case rep.Skipped:
			return f.Info("Already on %s", target(rep.ToID))
		case rep.Status == history.StatusOK:
			return f.Success("Switched to %s", target(rep.ToID))
		}
		return nil
	})
}

func target(id int) string {
	if id == profile.OriginalID {
		return "the original desktop"
	}
	return "desktop " + strconv.Itoa(id)
}

// Layout renders a saved icon layout sorted by icon name.
func (f *Formatter) Layout(id int, l layout.Layout) error {
	if l.Icons == nil {
		l = layout.New()
	}
	return f.Emit(l, func() error {
		if l.IsEmpty() {
			return f.Info("Desktop %d has no saved layout", id)
		}
		names := make([]string, 0, l.Len())
		for name := range l.Icons {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			p := l.Icons[name]
			rows = append(rows, []string{name, strconv.Itoa(int(p.X)), strconv.Itoa(int(p.Y))})
		}
		return f.Table(TableData{
			Columns: []TableColumn{
				{Header: "ICON"},
				{Header: "X", Align: AlignRight},
				{Header: "Y", Align: AlignRight},
			},
			Rows: rows,
		})
	})
}

// Links renders profile to slot links ordered by profile id.
func (f *Formatter) Links(links map[int]string) error {
	if links == nil {
		links = map[int]string{}
	}
	return f.Emit(links, func() error {
		if len(links) == 0 {
			return f.Info("No virtual desktop links")
		}
		ids := make([]int, 0, len(links))
		for id := range links {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, []string{strconv.Itoa(id), links[id]})
		}
		return f.Table(TableData{
			Columns: []TableColumn{{Header: "DESKTOP", Align: AlignRight}, {Header: "SLOT"}},
			Rows:    rows,
		})
	})
}

// Windows renders visible top-level windows.
func (f *Formatter) Windows(windows []vdesk.Window) error {
	if windows == nil {
		windows = []vdesk.Window{}
	}
	return f.Emit(windows, func() error {
		if len(windows) == 0 {
			return f.Info("No visible windows")
		}
		rows := make([][]string, 0, len(windows))
		for _, w := range windows {
			rows = append(rows, []string{
				fmt.Sprintf("0x%x", w.Handle),
				strconv.Itoa(w.Slot),
				strconv.FormatUint(uint64(w.ProcessID), 10),
				w.Title,
			})
		}
		return f.Table(TableData{
			Columns: []TableColumn{
				{Header: "HWND"},
				{Header: "SLOT", Align: AlignRight},
				{Header: "PID", Align: AlignRight},
				{Header: "TITLE"},
			},
			Rows: rows,
		})
	})
}

// Hotkeys renders hotkey settings.
func (f *Formatter) Hotkeys(s hotkey.Settings) error {
	return f.Emit(s, func() error {
		state := "disabled"
		if s.Enabled {
			state = "enabled"
		}
		f.Item("Hotkeys", state)
		return f.Item("Modifier", string(s.Modifier)+"+1..9")
	})
}

// historyJSON is the serializable form of a journal record.
type historyJSON struct {
	ID         string   `json:"id"`
	Operation  string   `json:"operation"`
	FromID     int      `json:"from_id"`
	ToID       int      `json:"to_id"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	StartedAt  string   `json:"started_at"`
	DurationMS int64    `json:"duration_ms"`
}

// History renders journal records, most recent first.
func (f *Formatter) History(records []history.Record) error {
	out := make([]historyJSON, 0, len(records))
	for _, r := range records {
		out = append(out, historyJSON{
			ID:         r.ID,
			Operation:  r.Operation,
			FromID:     r.FromID,
			ToID:       r.ToID,
			Status:     r.Status,
			Error:      r.Error,
			Warnings:   r.Warnings,
			StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
			DurationMS: r.Duration.Milliseconds(),
		})
	}

	return f.Emit(out, func() error {
		if len(records) == 0 {
			return f.Info("No operations recorded")
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			detail := r.Error
			if detail == "" && len(r.Warnings) > 0 {
				detail = strings.Join(r.Warnings, "; ")
			}
			rows = append(rows, []string{
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Operation,
				fmt.Sprintf("%d→%d", r.FromID, r.ToID),
				f.statusText(r.Status),
				r.Duration.Round(time.Millisecond).String(),
				detail,
			})
		}
		return f.Table(TableData{
			Columns: []TableColumn{
				{Header: "STARTED"},
				{Header: "OPERATION"},
				{Header: "FROM→TO"},
				{Header: "STATUS"},
				{Header: "DURATION", Align: AlignRight},
				{Header: "DETAIL"},
			},
			Rows: rows,
		})
	})
}

func (f *Formatter) statusText(status string) string {
	switch status {
	case history.StatusOK:
		return f.Colorize(status, ColorGreen)
	case history.StatusDrift:
		return f.Colorize(status, ColorYellow)
	default:
		return f.Colorize(status, ColorRed)
	}
}

// historySummaryJSON is the serializable form of a journal summary row.
type historySummaryJSON struct {
	Operation     string `json:"operation"`
	Status        string `json:"status"`
	Count         int64  `json:"count"`
	AvgDurationMS int64  `json:"avg_duration_ms"`
}

// HistorySummary renders per operation and status aggregates.
func (f *Formatter) HistorySummary(rows []history.Summary) error {
	out := make([]historySummaryJSON, 0, len(rows))
	for _, s := range rows {
		out = append(out, historySummaryJSON{
			Operation:     s.Operation,
			Status:        s.Status,
			Count:         s.Count,
			AvgDurationMS: s.AvgDuration.Milliseconds(),
		})
	}

	return f.Emit(out, func() error {
		if len(rows) == 0 {
			return f.Info("No operations recorded")
		}
		table := make([][]string, 0, len(rows))
		for _, s := range rows {
			table = append(table, []string{
				s.Operation,
				f.statusText(s.Status),
				strconv.FormatInt(s.Count, 10),
				s.AvgDuration.Round(time.Millisecond).String(),
			})
		}
		return f.Table(TableData{
			Columns: []TableColumn{
				{Header: "OPERATION"},
				{Header: "STATUS"},
				{Header: "COUNT", Align: AlignRight},
				{Header: "AVG", Align: AlignRight},
			},
			Rows: table,
		})
	})
}
