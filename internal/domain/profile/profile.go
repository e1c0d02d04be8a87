// Package profile defines the desktop profile model and the persisted
// workspace state document.
package profile

import (
	"fmt"
	"strings"

	domainErrors "github.com/jbctechsolutions/deskflip/internal/domain/errors"
)

// OriginalID is the active id meaning "the unmanaged original desktop".
const OriginalID = 0

// DefaultMaxProfiles bounds how many profiles a workspace may hold.
const DefaultMaxProfiles = 20

// FolderPrefix is prepended to the profile id to form its folder name.
const FolderPrefix = "Desktop"

// Profile is one managed desktop identity.
type Profile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DefaultName returns the deterministic label given to a new profile.
func DefaultName(id int) string {
	return fmt.Sprintf("Desktop %d", id)
}

// FolderName returns the directory name used for a profile under the managed root.
func FolderName(id int) string {
	return fmt.Sprintf("%s%d", FolderPrefix, id)
}

// State is the singleton workspace document.
type State struct {
	Profiles     []Profile      `json:"desktops"`
	ActiveID     int            `json:"active_desktop_id"`
	OriginalPath string         `json:"original_desktop_path"`
	Links        map[int]string `json:"virtual_desktop_mapping"`
}

// NewState returns an empty state rooted at the original desktop.
func NewState(originalPath string) State {
	return State{
		Profiles:     []Profile{},
		ActiveID:     OriginalID,
		OriginalPath: originalPath,
		Links:        map[int]string{},
	}
}

// NextID returns max(id)+1, or 1 when there are no profiles.
func (s *State) NextID() int {
	next := 1
	for _, p := range s.Profiles {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// Index returns the position of id in the profile list, or -1.
func (s *State) Index(id int) int {
	for i, p := range s.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the profile with the given id.
func (s *State) Find(id int) (Profile, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Profiles[i], true
	}
	return Profile{}, false
}

// IsActive reports whether id is the active profile.
func (s *State) IsActive(id int) bool {
	return id != OriginalID && s.ActiveID == id
}

// Add appends a new profile with the next id and default name.
func (s *State) Add(maxProfiles int) (Profile, error) {
	if maxProfiles > 0 && len(s.Profiles) >= maxProfiles {
		return Profile{}, domainErrors.ErrMaxProfiles
	}
	id := s.NextID()
	p := Profile{ID: id, Name: DefaultName(id)}
	s.Profiles = append(s.Profiles, p)
	return p, nil
}

// Remove deletes a profile after checking the delete guards. The active
// profile check runs before the last-profile check.
func (s *State) Remove(id int) error {
	i := s.Index(id)
	if i < 0 {
		return domainErrors.ErrProfileNotFound
	}
	if s.IsActive(id) {
		return domainErrors.ErrActiveProfile
	}
	if len(s.Profiles) <= 1 {
		return domainErrors.ErrLastProfile
	}
	s.Profiles = append(s.Profiles[:i:i], s.Profiles[i+1:]...)
	delete(s.Links, id)
	return nil
}

// Rename changes the display name of a profile.
func (s *State) Rename(id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domainErrors.ErrInvalidName
	}
	i := s.Index(id)
	if i < 0 {
		return domainErrors.ErrProfileNotFound
	}
	s.Profiles[i].Name = name
	return nil
}

// Link associates a profile with a virtual desktop slot identifier.
func (s *State) Link(id int, slot string) error {
	if s.Index(id) < 0 {
		return domainErrors.ErrProfileNotFound
	}
	if s.Links == nil {
		s.Links = map[int]string{}
	}
	s.Links[id] = slot
	return nil
}

// Unlink drops any slot association for the profile.
func (s *State) Unlink(id int) {
	delete(s.Links, id)
}

// LinkedIndex returns the position of id among the linked profiles, in
// display order. The second result is false when id is not linked.
func (s *State) LinkedIndex(id int) (int, bool) {
	if _, ok := s.Links[id]; !ok {
		return 0, false
	}
	n := 0
	for _, p := range s.Profiles {
		if _, linked := s.Links[p.ID]; !linked {
			continue
		}
		if p.ID == id {
			return n, true
		}
		n++
	}
	return 0, false
}

// Normalize repairs a decoded document: nil collections become empty and
// links that point at missing profiles are dropped.
func (s *State) Normalize() {
	if s.Profiles == nil {
		s.Profiles = []Profile{}
	}
	if s.Links == nil {
		s.Links = map[int]string{}
	}
	for id := range s.Links {
		if s.Index(id) < 0 {
			delete(s.Links, id)
		}
	}
}

// Validate checks the document invariants.
func (s *State) Validate() error {
	seen := make(map[int]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		if p.ID <= 0 {
			return fmt.Errorf("profile id %d is not positive", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate profile id %d", p.ID)
		}
		seen[p.ID] = true
	}
	if s.ActiveID != OriginalID && !seen[s.ActiveID] {
		return fmt.Errorf("active profile %d is not in the profile list", s.ActiveID)
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Profiles = append([]Profile(nil), s.Profiles...)
	c.Links = make(map[int]string, len(s.Links))
	for k, v := range s.Links {
		c.Links[k] = v
	}
	return c
}

// View is the derived runtime description of a profile.
type View struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsActive  bool   `json:"is_active"`
	FileCount int    `json:"file_count"`
	Slot      string `json:"slot,omitempty"`
}
