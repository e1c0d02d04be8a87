package profile

import (
	"encoding/json"
	"errors"
	"testing"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
)

func TestStateNextID(t *testing.T) {
	tests := []struct {
		name     string
		profiles []Profile
		want     int
	}{
		{"empty", nil, 1},
		{"single", []Profile{{ID: 1}}, 2},
		{"gap keeps max", []Profile{{ID: 1}, {ID: 5}, {ID: 3}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Profiles: tt.profiles}
			if got := s.NextID(); got != tt.want {
				t.Errorf("NextID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStateAddAndRemoveKeepIDsUnique(t *testing.T) {
	s := NewState("")
	ops := []struct {
		add bool
		id  int
	}{
		{add: true}, {add: true}, {add: true},
		{id: 2},
		{add: true},
		{id: 4},
		{add: true}, {add: true},
		{id: 1},
	}

	for _, op := range ops {
		if op.add {
			if _, err := s.Add(DefaultMaxProfiles); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
		} else if err := s.Remove(op.id); err != nil {
			t.Fatalf("Remove(%d) error = %v", op.id, err)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("Validate() after op %+v: %v", op, err)
		}
	}

	want := []int{3, 4, 5}
	if len(s.Profiles) != len(want) {
		t.Fatalf("profiles = %+v, want ids %v", s.Profiles, want)
	}
	for i, id := range want {
		if s.Profiles[i].ID != id {
			t.Errorf("Profiles[%d].ID = %d, want %d", i, s.Profiles[i].ID, id)
		}
	}
}

func TestStateAddDefaultName(t *testing.T) {
	s := NewState("")
	p, err := s.Add(DefaultMaxProfiles)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 1 || p.Name != "Desktop 1" {
		t.Errorf("Add() = %+v, want {1 Desktop 1}", p)
	}
}

func TestStateAddMax(t *testing.T) {
	s := NewState("")
	for i := 0; i < 3; i++ {
		if _, err := s.Add(3); err != nil {
			t.Fatal(err)
		}
	}

	before := s.Clone()
	if _, err := s.Add(3); !errors.Is(err, domainErrors.ErrMaxProfiles) {
		t.Fatalf("Add() error = %v, want ErrMaxProfiles", err)
	}
	if len(s.Profiles) != len(before.Profiles) {
		t.Error("state changed after rejected Add")
	}
}

func TestStateRemoveGuards(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		id      int
		wantErr error
	}{
		{
			name:    "unknown id",
			state:   State{Profiles: []Profile{{ID: 1}, {ID: 2}}},
			id:      7,
			wantErr: domainErrors.ErrProfileNotFound,
		},
		{
			name:    "last profile",
			state:   State{Profiles: []Profile{{ID: 1}}},
			id:      1,
			wantErr: domainErrors.ErrLastProfile,
		},
		{
			name:    "active profile",
			state:   State{Profiles: []Profile{{ID: 1}, {ID: 2}}, ActiveID: 2},
			id:      2,
			wantErr: domainErrors.ErrActiveProfile,
		},
		{
			name:    "active and last reports active",
			state:   State{Profiles: []Profile{{ID: 2}}, ActiveID: 2},
			id:      2,
			wantErr: domainErrors.ErrActiveProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state.Clone()
			err := tt.state.Remove(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Remove() error = %v, want %v", err, tt.wantErr)
			}
			if len(tt.state.Profiles) != len(before.Profiles) {
				t.Error("state changed after rejected Remove")
			}
		})
	}
}

func TestStateRemoveDropsLink(t *testing.T) {
	s := State{
		Profiles: []Profile{{ID: 1}, {ID: 2}},
		Links:    map[int]string{1: "a", 2: "b"},
	}
	if err := s.Remove(1); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Links[1]; ok {
		t.Error("link for removed profile still present")
	}
}

func TestStateLinkedIndex(t *testing.T) {
	s := State{
		Profiles: []Profile{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		Links:    map[int]string{2: "x", 4: "y"},
	}

	tests := []struct {
		id     int
		want   int
		linked bool
	}{
		{2, 0, true},
		{4, 1, true},
		{1, 0, false},
		{9, 0, false},
	}

	for _, tt := range tests {
		got, ok := s.LinkedIndex(tt.id)
		if got != tt.want || ok != tt.linked {
			t.Errorf("LinkedIndex(%d) = (%d, %v), want (%d, %v)", tt.id, got, ok, tt.want, tt.linked)
		}
	}
}

func TestStateRename(t *testing.T) {
	s := State{Profiles: []Profile{{ID: 1, Name: "Desktop 1"}}}

	if err := s.Rename(1, "  Work  "); err != nil {
		t.Fatal(err)
	}
	if s.Profiles[0].Name != "Work" {
		t.Errorf("Name = %q, want Work", s.Profiles[0].Name)
	}
	if err := s.Rename(1, "   "); !errors.Is(err, domainErrors.ErrInvalidName) {
		t.Errorf("Rename(blank) error = %v", err)
	}
	if err := s.Rename(5, "x"); !errors.Is(err, domainErrors.ErrProfileNotFound) {
		t.Errorf("Rename(unknown) error = %v", err)
	}
}

func TestStateValidate(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		wantErr bool
	}{
		{"empty", State{}, false},
		{"valid", State{Profiles: []Profile{{ID: 1}, {ID: 2}}, ActiveID: 2}, false},
		{"duplicate", State{Profiles: []Profile{{ID: 1}, {ID: 1}}}, true},
		{"zero id", State{Profiles: []Profile{{ID: 0}}}, true},
		{"dangling active", State{Profiles: []Profile{{ID: 1}}, ActiveID: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStateJSONFieldNames(t *testing.T) {
	s := State{
		Profiles:     []Profile{{ID: 1, Name: "Desktop 1"}},
		ActiveID:     1,
		OriginalPath: `C:\Users\me\Desktop`,
		Links:        map[int]string{1: "slot-a"},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"desktops", "active_desktop_id", "original_desktop_path", "virtual_desktop_mapping"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if string(raw["virtual_desktop_mapping"]) != `{"1":"slot-a"}` {
		t.Errorf("virtual_desktop_mapping = %s", raw["virtual_desktop_mapping"])
	}
}

func TestStateNormalize(t *testing.T) {
	s := State{Profiles: []Profile{{ID: 1}}, Links: map[int]string{1: "a", 3: "b"}}
	s.Normalize()
	if len(s.Links) != 1 {
		t.Errorf("Links = %v, want only profile 1", s.Links)
	}

	var empty State
	empty.Normalize()
	if empty.Profiles == nil || empty.Links == nil {
		t.Error("Normalize left nil collections")
	}
}
