package css

import "strings"

type Kind uint8

const (
	NumberKind Kind = iota + 1
	PercentKind
	LengthKind
	StringKind
	IdentKind
	ColorKind
	URLKind
)

// Value is a single typed term of a declaration.
type Value struct {
	Kind   Kind
	Number float64 // NumberKind, PercentKind and LengthKind
	Unit   string  // LengthKind
	Text   string  // StringKind, IdentKind and URLKind
	Color  RGB     // ColorKind

	// Sep is the operator written in front of the value: 0 for none,
	// ',' or '/'.
	Sep byte
}

// String formats v as CSS. Unlike the Visitor.Value default, percentages
// keep their fraction.
func (v Value) String() string {
	switch v.Kind {
	case NumberKind:
		return FormatNumber(v.Number)
	case PercentKind:
		// unrounded, so a collected style writes back what it read
		return FormatNumber(v.Number) + "%"
	case LengthKind:
		return FormatLength(v.Number, v.Unit)
	case StringKind:
		return FormatString(v.Text)
	case IdentKind:
		return v.Text
	case ColorKind:
		return v.Color.String()
	case URLKind:
		return FormatURL(v.Text)
	}
	return ""
}

// Decl is a CSS declaration.
type Decl struct {
	Property  string
	Values    []Value
	Important bool
}

func (d Decl) String() string {
	var b strings.Builder
	b.WriteString(d.Property)
	b.WriteString(":")
	for _, v := range d.Values {
		switch v.Sep {
		case ',':
			b.WriteString(", ")
		case '/':
			b.WriteString("/")
		default:
			b.WriteString(" ")
		}
		b.WriteString(v.String())
	}
	if d.Important {
		b.WriteString(" !important")
	}
	return b.String()
}

// FormatDecls writes decls back out as a style attribute value.
func FormatDecls(decls []Decl) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// Declarations parses a style attribute into its declarations. On a parse
// error no declarations are returned.
func Declarations(style string) ([]Decl, error) {
	var c collector
	if err := NewParser(style).Parse(&c); err != nil {
		return nil, err
	}
	return c.decls, nil
}

type collector struct {
	decls []Decl
	sep   byte
}

func (c *collector) Declaration(name string) error {
	c.decls = append(c.decls, Decl{Property: name})
	c.sep = 0
	return nil
}

func (c *collector) add(v Value) error {
	v.Sep = c.sep
	c.sep = 0
	d := &c.decls[len(c.decls)-1]
	d.Values = append(d.Values, v)
	return nil
}

// Value is unused, collector implements every typed visitor.
func (c *collector) Value(string) error { return nil }

func (c *collector) Number(f float64) error {
	return c.add(Value{Kind: NumberKind, Number: f})
}

func (c *collector) Percent(p float64) error {
	return c.add(Value{Kind: PercentKind, Number: p})
}

func (c *collector) Length(f float64, unit string) error {
	return c.add(Value{Kind: LengthKind, Number: f, Unit: unit})
}

func (c *collector) StringValue(s string) error {
	return c.add(Value{Kind: StringKind, Text: s})
}

func (c *collector) Ident(name string) error {
	return c.add(Value{Kind: IdentKind, Text: name})
}

func (c *collector) Color(rgb RGB) error {
	return c.add(Value{Kind: ColorKind, Color: rgb})
}

func (c *collector) URL(u string) error {
	return c.add(Value{Kind: URLKind, Text: u})
}

func (c *collector) Comma() error {
	c.sep = ','
	return nil
}

func (c *collector) Slash() error {
	c.sep = '/'
	return nil
}

func (c *collector) Important() error {
	c.decls[len(c.decls)-1].Important = true
	return nil
}
