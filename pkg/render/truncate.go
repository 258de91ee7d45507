package render

// Ellipsis is appended to clipped labels.
const Ellipsis = "..."

// Truncate clips name to max runes, appending Ellipsis when anything was cut.
// A non-positive max leaves name untouched.
func Truncate(name string, max int) string {
	if max <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max]) + Ellipsis
}
