package css

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Scanner splits a style attribute into tokens. Each call to Next reads
// one token and leaves its value in the exported fields.
//
// Scanning never backtracks past the start of the current token, so the
// cost of a scan is linear in the length of the style.
type Scanner struct {
	src string
	pos int

	// Token results
	Token   Token
	Literal string  // Ident name, decoded String or URL
	Number  float64 // valid when Token == Number
	Unit    string  // lower case unit of a Number, "" if it has none
	Color   RGB     // valid when Token == Color
}

func NewScanner(style string) *Scanner {
	return &Scanner{src: style}
}

// Pos returns the byte offset of the next unread character.
func (s *Scanner) Pos() int {
	return s.pos
}

func (s *Scanner) error(msg string) error {
	return errors.WithStack(&ParseError{Offset: s.pos, Msg: msg})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func hexValue(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// identRune reports whether the non-ASCII rune at s.src[i:] may be part
// of an identifier, and its width. Spaces and invisible format characters
// such as U+202E never are.
func (s *Scanner) identRune(i int) (bool, int) {
	r, n := utf8.DecodeRuneInString(s.src[i:])
	if r == utf8.RuneError && n <= 1 {
		return false, 0
	}
	return r >= 0xA1 && unicode.IsGraphic(r) && !unicode.IsSpace(r), n
}

// Next reads the next token. At the end of the style Token is EOF. A
// character sequence that starts no token is a *ParseError.
func (s *Scanner) Next() error {
	s.Literal = ""
	s.Number = 0
	s.Unit = ""
	s.Color = 0

	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.src) {
		s.Token = EOF
		return nil
	}

	switch c := s.src[s.pos]; c {
	case ':':
		return s.single(Colon)
	case '+':
		return s.single(Plus)
	case '/':
		return s.single(Slash)
	case ',':
		return s.single(Comma)
	case ';':
		return s.single(Semicolon)
	case '-':
		if s.number() {
			return nil
		}
		return s.single(Minus)
	case '!':
		if s.important() {
			return nil
		}
		return s.error("unexpected character sequence")
	case '#':
		if s.hexColor() {
			return nil
		}
		return s.error("invalid #RGB color")
	case 'r', 'R':
		if s.rgb() {
			return nil
		}
	case 'u', 'U':
		if s.url() {
			return nil
		}
	case '"', '\'':
		if end, ok := s.quoted(s.pos); ok {
			s.Token = String
			s.Literal = unescape(s.src[s.pos+1 : end-1])
			s.pos = end
			return nil
		}
		return s.error("invalid quoted string")
	}

	if s.ident() || s.number() {
		return nil
	}
	return s.error("unrecognized character sequence")
}

func (s *Scanner) single(t Token) error {
	s.pos++
	s.Token = t
	return nil
}

func (s *Scanner) ident() bool {
	i := s.pos
	if c := s.src[i]; isLetter(c) {
		i++
	} else if c < utf8.RuneSelf {
		return false
	} else if ok, n := s.identRune(i); ok {
		i += n
	} else {
		return false
	}

	for i < len(s.src) {
		c := s.src[i]
		if isLetter(c) || isDigit(c) || c == '-' {
			i++
			continue
		}
		if c < utf8.RuneSelf {
			break
		}
		ok, n := s.identRune(i)
		if !ok {
			break
		}
		i += n
	}

	s.Token = Ident
	s.Literal = s.src[s.pos:i]
	s.pos = i
	return true
}

var units = []string{"pt", "mm", "cm", "pc", "in", "px", "em", "ex"}

// number reads an optionally signed decimal number with an optional unit.
func (s *Scanner) number() bool {
	end, ok := scanDecimal(s.src, s.pos, true)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(s.src[s.pos:end], 64)
	if err != nil {
		return false
	}

	unit := ""
	if end < len(s.src) && s.src[end] == '%' {
		unit = "%"
	} else if end+2 <= len(s.src) {
		u := strings.ToLower(s.src[end : end+2])
		for _, known := range units {
			if u == known {
				unit = u
				break
			}
		}
	}

	s.Token = Number
	s.Number = f
	s.Unit = unit
	s.pos = end + len(unit)
	return true
}

// scanDecimal matches digits with an optional fraction, or a bare fraction
// such as ".5", at src[i:]. A sign is only accepted in front of digits.
func scanDecimal(src string, i int, signed bool) (int, bool) {
	if signed && i < len(src) && (src[i] == '+' || src[i] == '-') {
		if i+1 >= len(src) || !isDigit(src[i+1]) {
			return i, false
		}
		i++
	}

	digits := func(j int) int {
		for j < len(src) && isDigit(src[j]) {
			j++
		}
		return j
	}

	if i < len(src) && isDigit(src[i]) {
		i = digits(i)
		if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
			i = digits(i + 1)
		}
		return i, true
	}
	if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
		return digits(i + 1), true
	}
	return i, false
}

func (s *Scanner) important() bool {
	i := s.pos + 1
	for i < len(s.src) && (isSpace(s.src[i]) || s.src[i] == '\f' || s.src[i] == '\v') {
		i++
	}
	const word = "important"
	if i+len(word) > len(s.src) || !strings.EqualFold(s.src[i:i+len(word)], word) {
		return false
	}
	s.Token = Important
	s.pos = i + len(word)
	return true
}

func (s *Scanner) hexColor() bool {
	i := s.pos + 1
	for i < len(s.src) && hexValue(s.src[i]) >= 0 {
		i++
	}

	digits := s.src[s.pos+1 : i]
	var c RGB
	switch len(digits) {
	case 6:
		v, _ := strconv.ParseUint(digits, 16, 32)
		c = RGB(v)
	case 3:
		r, g, b := hexValue(digits[0]), hexValue(digits[1]), hexValue(digits[2])
		c = RGB(r*0x110000 + g*0x1100 + b*0x11)
	default:
		return false
	}

	s.Token = Color
	s.Color = c
	s.pos = i
	return true
}

// hasPrefixFold reports whether src[i:] starts with prefix, ignoring ASCII
// case.
func hasPrefixFold(src string, i int, prefix string) bool {
	return i+len(prefix) <= len(src) && strings.EqualFold(src[i:i+len(prefix)], prefix)
}

func (s *Scanner) skipSpaces(i int) int {
	for i < len(s.src) && isSpace(s.src[i]) {
		i++
	}
	return i
}

// rgb reads the rgb(r, g, b) color form. Channels are plain numbers or
// percentages and saturate at 255.
func (s *Scanner) rgb() bool {
	if !hasPrefixFold(s.src, s.pos, "rgb(") {
		return false
	}

	i := s.pos + len("rgb(")
	var channels [3]int
	for n := range channels {
		i = s.skipSpaces(i)
		end, ok := scanDecimal(s.src, i, false)
		if !ok {
			return false
		}
		v, err := strconv.ParseFloat(s.src[i:end], 64)
		if err != nil {
			return false
		}
		i = end
		if i < len(s.src) && s.src[i] == '%' {
			v = v * 255 / 100
			i++
		}
		if v >= 256 {
			v = 255
		}
		channels[n] = int(v)

		i = s.skipSpaces(i)
		sep := byte(',')
		if n == len(channels)-1 {
			sep = ')'
		}
		if i >= len(s.src) || s.src[i] != sep {
			return false
		}
		i++
	}

	s.Token = Color
	s.Color = RGB(channels[0]<<16 | channels[1]<<8 | channels[2])
	s.pos = i
	return true
}

// url reads url(...) with a quoted or unquoted location.
func (s *Scanner) url() bool {
	if !hasPrefixFold(s.src, s.pos, "url(") {
		return false
	}

	i := s.skipSpaces(s.pos + len("url("))
	var literal string
	if i < len(s.src) && (s.src[i] == '"' || s.src[i] == '\'') {
		end, ok := s.quoted(i)
		if !ok {
			return false
		}
		literal = unescape(s.src[i+1 : end-1])
		i = end
	} else {
		end := s.unquotedURL(i)
		literal = unescape(s.src[i:end])
		i = end
	}

	i = s.skipSpaces(i)
	if i >= len(s.src) || s.src[i] != ')' {
		return false
	}

	s.Token = URL
	s.Literal = literal
	s.pos = i + 1
	return true
}

// unquotedURL returns the end of the unquoted url characters starting at
// i: printable ASCII other than quotes, parentheses and backslash, or a
// backslash escape.
func (s *Scanner) unquotedURL(i int) int {
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == '\\':
			n := s.escape(i, false)
			if n == 0 {
				return i
			}
			i += n
		case '!' <= c && c <= '~' && c != '\'' && c != '"' && c != '(' && c != ')':
			i++
		default:
			return i
		}
	}
	return i
}

// escape returns the length of the backslash escape at src[i], or 0 if
// there is none. Inside strings an escaped line break is allowed.
func (s *Scanner) escape(i int, inString bool) int {
	if i+1 >= len(s.src) {
		return 0
	}

	c := s.src[i+1]
	if hexValue(c) >= 0 {
		j := i + 1
		for j < len(s.src) && j < i+5 && hexValue(s.src[j]) >= 0 {
			j++
		}
		if !inString && j < len(s.src) && isSpace(s.src[j]) {
			j++
		}
		return j - i
	}

	switch {
	case ' ' <= c && c <= '~':
		return 2
	case inString && (c == '\r' || c == '\n' || c == '\t'):
		return 2
	case c >= utf8.RuneSelf:
		_, n := utf8.DecodeRuneInString(s.src[i+1:])
		return 1 + n
	}
	return 0
}

// quoted returns the offset just past the string that starts with a quote
// at src[i].
func (s *Scanner) quoted(i int) (int, bool) {
	quote := s.src[i]
	for i++; i < len(s.src); {
		c := s.src[i]
		switch {
		case c == quote:
			return i + 1, true
		case c == '\\':
			n := s.escape(i, true)
			if n == 0 {
				return 0, false
			}
			i += n
		case c == '\t' || ' ' <= c && c <= '~' || c >= utf8.RuneSelf:
			i++
		default:
			return 0, false
		}
	}
	return 0, false
}

// unescape decodes the backslash escapes of a string or url. A backslash
// followed by up to four hex digits stands for that code point and may be
// followed by a single space, which is dropped. Two escapes forming a
// UTF-16 surrogate pair stand for one supplementary character. Any other
// escaped character stands for itself.
func unescape(str string) string {
	if strings.IndexByte(str, '\\') < 0 {
		return str
	}

	var (
		b    strings.Builder
		high rune // unpaired high surrogate
	)
	flush := func() {
		if high != 0 {
			b.WriteRune(utf8.RuneError)
			high = 0
		}
	}

	b.Grow(len(str))
	for i := 0; i < len(str); i++ {
		c := str[i]
		if c != '\\' {
			flush()
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(str) {
			break
		}

		i++
		value := hexValue(str[i])
		if value < 0 {
			flush()
			b.WriteByte(str[i])
			continue
		}
		lim := i + 4
		if lim > len(str) {
			lim = len(str)
		}
		for i+1 < lim {
			h := hexValue(str[i+1])
			if h < 0 {
				break
			}
			value = value*16 + h
			i++
		}
		if i+1 < len(str) && str[i+1] == ' ' {
			i++
		}

		r := rune(value)
		switch {
		case 0xD800 <= r && r < 0xDC00:
			flush()
			high = r
			continue
		case utf16.IsSurrogate(r) && high != 0:
			r = utf16.DecodeRune(high, r)
			high = 0
		default:
			flush()
			if r == 0 || !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
		}
		b.WriteRune(r)
	}
	flush()
	return b.String()
}
