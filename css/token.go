package css

import "fmt"

type Token uint8

// Tokens of a style attribute. Only the subset of CSS needed by inline
// declarations is recognized.
const (
	EOF Token = iota
	Ident
	Colon     // :
	Minus     // -
	Plus      // +
	Color     // #rgb, #rrggbb, rgb(r, g, b)
	URL       // url(...)
	String    // '...' or "..."
	Number    // number with optional unit
	Slash     // /
	Comma     // ,
	Semicolon // ;
	Important // !important
)

var tokenNames = [...]string{
	EOF:       "EOF",
	Ident:     "Ident",
	Colon:     "Colon",
	Minus:     "Minus",
	Plus:      "Plus",
	Color:     "Color",
	URL:       "URL",
	String:    "String",
	Number:    "Number",
	Slash:     "Slash",
	Comma:     "Comma",
	Semicolon: "Semicolon",
	Important: "Important",
}

func (t Token) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("Token(%d)", uint8(t))
}

// RGB is a color packed as 0xRRGGBB.
type RGB uint32

func (c RGB) R() uint8 { return uint8(c >> 16) }
func (c RGB) G() uint8 { return uint8(c >> 8) }
func (c RGB) B() uint8 { return uint8(c) }

// String formats c as "#rrggbb".
func (c RGB) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// ParseError is returned for a style that does not follow the declaration
// grammar. Offset is the byte offset into the style where parsing stopped.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("css: %s at offset %d", e.Msg, e.Offset)
}
