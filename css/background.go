package css

import "strings"

type backgroundVisitor struct {
	background bool
	color      RGB
	found      bool
}

func (v *backgroundVisitor) Declaration(name string) error {
	v.background = strings.EqualFold(name, "background") || strings.EqualFold(name, "background-color")
	return nil
}

func (v *backgroundVisitor) Value(string) error { return nil }

func (v *backgroundVisitor) Color(c RGB) error {
	if v.background {
		v.color, v.found = c, true
	}
	return nil
}

func (v *backgroundVisitor) Ident(name string) error {
	if !v.background {
		return nil
	}
	if c, ok := NamedColor(name); ok {
		v.color, v.found = c, true
	}
	return nil
}

// ExtractBackgroundColor returns the color set by the last background or
// background-color declaration of a style. It returns false if there is
// none or the style does not parse.
func ExtractBackgroundColor(style string) (RGB, bool) {
	var v backgroundVisitor
	if err := NewParser(style).Parse(&v); err != nil {
		return 0, false
	}
	return v.color, v.found
}
