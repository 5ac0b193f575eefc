package ui

// Styles carries the render functions the selectors apply to each line.
// Keeping them as plain string functions keeps this package free of any
// terminal dependency and trivially testable.
type Styles struct {
	Header           func(string) string
	Normal           func(string) string
	Selected         func(string) string
	Disabled         func(string) string
	DisabledSelected func(string) string
	Secondary        func(string) string
}

func PlainStyles() Styles {
	identity := func(s string) string { return s }
	return Styles{
		Header:           identity,
		Normal:           identity,
		Selected:         identity,
		Disabled:         identity,
		DisabledSelected: identity,
		Secondary:        identity,
	}
}

// PadOrTrim fits s into exactly width cells, padding with spaces or
// truncating with an ellipsis.
func PadOrTrim(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > width {
		if width == 1 {
			return "…"
		}
		return string(runes[:width-1]) + "…"
	}
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	return string(runes)
}
