package css

import (
	"math"
	"strconv"
)

// Visitor receives the declarations of a style as they are parsed.
// Declaration is called with the property name, then once per value.
//
// A Visitor may implement any of the typed interfaces below. Values whose
// typed method is missing are formatted as CSS and passed to Value, so a
// Visitor that only wants the text of each value needs just these two
// methods. Returning an error from any method stops the parse.
type Visitor interface {
	Declaration(name string) error
	Value(value string) error
}

type NumberVisitor interface {
	Number(f float64) error
}

type PercentVisitor interface {
	Percent(p float64) error
}

type LengthVisitor interface {
	Length(f float64, unit string) error
}

// StringVisitor receives decoded quoted strings.
type StringVisitor interface {
	StringValue(s string) error
}

type IdentVisitor interface {
	Ident(name string) error
}

type ColorVisitor interface {
	Color(c RGB) error
}

// URLVisitor receives the decoded location of url(...) values.
type URLVisitor interface {
	URL(u string) error
}

// CommaVisitor is told about each comma between two values. There is no
// fallback to Value.
type CommaVisitor interface {
	Comma() error
}

// SlashVisitor is told about each slash between two values, as in
// "font: 12px/1.5 serif". There is no fallback to Value.
type SlashVisitor interface {
	Slash() error
}

// ImportantVisitor is told when a declaration ends with !important. There
// is no fallback to Value.
type ImportantVisitor interface {
	Important() error
}

func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatPercent rounds p half away from zero to a whole percentage,
// saturating at the int32 range.
func FormatPercent(p float64) string {
	r := math.Round(p)
	switch {
	case r > math.MaxInt32:
		r = math.MaxInt32
	case r < math.MinInt32:
		r = math.MinInt32
	case math.IsNaN(r):
		r = 0
	}
	return strconv.Itoa(int(r)) + "%"
}

func FormatLength(f float64, unit string) string {
	return FormatNumber(f) + unit
}

// FormatString quotes s with single quotes.
func FormatString(s string) string {
	return "'" + EscapeString(s) + "'"
}

func FormatURL(u string) string {
	return "url('" + EscapeString(u) + "')"
}

func visitNumber(v Visitor, f float64) error {
	if nv, ok := v.(NumberVisitor); ok {
		return nv.Number(f)
	}
	return v.Value(FormatNumber(f))
}

func visitPercent(v Visitor, p float64) error {
	if pv, ok := v.(PercentVisitor); ok {
		return pv.Percent(p)
	}
	return v.Value(FormatPercent(p))
}

func visitLength(v Visitor, f float64, unit string) error {
	if lv, ok := v.(LengthVisitor); ok {
		return lv.Length(f, unit)
	}
	return v.Value(FormatLength(f, unit))
}

func visitString(v Visitor, s string) error {
	if sv, ok := v.(StringVisitor); ok {
		return sv.StringValue(s)
	}
	return v.Value(FormatString(s))
}

func visitIdent(v Visitor, name string) error {
	if iv, ok := v.(IdentVisitor); ok {
		return iv.Ident(name)
	}
	return v.Value(name)
}

func visitColor(v Visitor, c RGB) error {
	if cv, ok := v.(ColorVisitor); ok {
		return cv.Color(c)
	}
	return v.Value(c.String())
}

func visitURL(v Visitor, u string) error {
	if uv, ok := v.(URLVisitor); ok {
		return uv.URL(u)
	}
	return v.Value(FormatURL(u))
}

func visitComma(v Visitor) error {
	if cv, ok := v.(CommaVisitor); ok {
		return cv.Comma()
	}
	return nil
}

func visitSlash(v Visitor) error {
	if sv, ok := v.(SlashVisitor); ok {
		return sv.Slash()
	}
	return nil
}

func visitImportant(v Visitor) error {
	if iv, ok := v.(ImportantVisitor); ok {
		return iv.Important()
	}
	return nil
}
