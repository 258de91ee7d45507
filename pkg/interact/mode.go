package interact

// Mode summarizes the controller state for display. Hover and selection are
// independent, so Mode reports the most transient one that holds.
type Mode int

const (
	ModeIdle     Mode = iota // nothing hovered, selected or dragged
	ModeSelected             // a node is selected, pointer is elsewhere
	ModeHovering             // pointer is over a node
	ModeDragging             // a node is pinned under the pointer
)

// String returns the mode name for the status bar.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeSelected:
		return "SELECTED"
	case ModeHovering:
		return "HOVER"
	case ModeDragging:
		return "DRAG"
	default:
		return "UNKNOWN"
	}
}
