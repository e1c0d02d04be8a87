// Package layout defines saved desktop icon layouts.
package layout

// GridPitch is the spacing restored icons are snapped to.
const GridPitch = 75

// Position is an icon location in desktop view coordinates.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Layout maps icon display names to positions. It is a snapshot: names
// missing from it are left where the shell puts them.
type Layout struct {
	Icons map[string]Position `json:"icons"`
}

// New returns an empty layout.
func New() Layout {
	return Layout{Icons: map[string]Position{}}
}

// Len returns the number of saved icons.
func (l Layout) Len() int {
	return len(l.Icons)
}

// IsEmpty reports whether the layout holds no icons.
func (l Layout) IsEmpty() bool {
	return len(l.Icons) == 0
}

// Set records the position of an icon, overwriting any previous entry.
func (l *Layout) Set(name string, p Position) {
	if l.Icons == nil {
		l.Icons = map[string]Position{}
	}
	l.Icons[name] = p
}

// Snap floors each axis toward zero to a multiple of pitch.
func Snap(p Position, pitch int32) Position {
	if pitch <= 0 {
		return p
	}
	return Position{
		X: (p.X / pitch) * pitch,
		Y: (p.Y / pitch) * pitch,
	}
}
