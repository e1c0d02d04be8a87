// Package vdesk defines types describing native virtual desktops.
package vdesk

// Window is a visible top-level window and the slot it lives on.
type Window struct {
	Handle    uintptr `json:"hwnd"`
	Title     string  `json:"title"`
	ProcessID uint32  `json:"process_id"`
	Slot      int     `json:"desktop_index"`
}

// Direction selects a neighbouring slot.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}
