package css

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// EscapeString escapes s for use inside a quoted CSS string or url. Quotes
// and backslashes get a backslash. Printable ASCII, tab and U+0080 to
// U+00FF are kept as they are. Everything else is written as a hex escape
// followed by a space, characters past U+FFFF as two escapes of their
// UTF-16 surrogate pair.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		case ' ' <= c && c <= '~' || c == '\t':
			b.WriteByte(c)
			i++
		case c >= utf8.RuneSelf:
			r, n := utf8.DecodeRuneInString(s[i:])
			switch {
			case r <= 0xFF:
				b.WriteString(s[i : i+n])
			case r > 0xFFFF:
				r1, r2 := utf16.EncodeRune(r)
				hexEscape(&b, r1)
				hexEscape(&b, r2)
			default:
				// invalid UTF-8 decodes to U+FFFD
				hexEscape(&b, r)
			}
			i += n
		default:
			hexEscape(&b, rune(c))
			i++
		}
	}
	return b.String()
}

func hexEscape(b *strings.Builder, r rune) {
	b.WriteByte('\\')
	b.WriteString(strconv.FormatUint(uint64(r), 16))
	b.WriteByte(' ')
}
