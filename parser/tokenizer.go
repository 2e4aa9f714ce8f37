package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

type tokenizerState uint

const (
	normalState tokenizerState = iota
	// openCloseState follows a "<tag/>" start tag. The next call to Next
	// returns the matching end tag if the element requires one.
	openCloseState
	// poppingState unwinds the element stack down to popIndex, one end
	// tag per call to Next.
	poppingState
	// reopenState holds back a start tag while the implied end tag of its
	// open sibling is returned.
	reopenState
)

type pendingTag struct {
	name       string
	attributes []Attribute
	selfClosed bool
}

// HTMLTokenizer is a forgiving pull tokenizer for HTML fragments. It never
// fails on malformed markup: anything it cannot make sense of comes back
// as text. Start tags are balanced with end tags for every element in the
// required close set, synthesizing the missing ones.
//
// An HTMLTokenizer is not safe for concurrent use.
type HTMLTokenizer struct {
	data          string
	offset, limit int
	currentState  tokenizerState

	text       strings.Builder
	tagName    string
	attributes []Attribute
	implied    bool

	popIndex     int
	elementStack []string
	pending      pendingTag

	log logrus.FieldLogger
}

// Option configures an HTMLTokenizer.
type Option func(*HTMLTokenizer)

// WithLogger sets the logger recovery events are traced to at debug level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *HTMLTokenizer) {
		p.log = log
	}
}

// NewHTMLTokenizer creates a tokenizer over the HTML string in. The first
// call should be to Next.
func NewHTMLTokenizer(in string, opts ...Option) *HTMLTokenizer {
	p := &HTMLTokenizer{
		data:         in,
		limit:        len(in),
		popIndex:     -1,
		elementStack: make([]string, 0, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logrus.WithField("component", "tokenizer")
	}
	return p
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

// isAlpha only accepts ASCII letters. HTML defines no tag or attribute
// names outside of that range.
func isAlpha(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func isNamePart(ch byte) bool {
	return isAlphaNumeric(ch) || ch == ':' || ch == '-'
}

func hexValue(ch byte) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'f':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'F':
		return int(ch-'A') + 10
	}
	return -1
}

// codePoint maps a numeric character reference to the rune it stands for.
// NUL, surrogates and values past the Unicode range become U+FFFD.
func codePoint(v int) rune {
	if v == 0 || v > utf8.MaxRune || (0xD800 <= v && v <= 0xDFFF) {
		return utf8.RuneError
	}
	return rune(v)
}

// Text returns the decoded text of a TextToken, the full comment of a
// CommentToken or the text of a DoctypeToken. It is empty for tags.
func (p *HTMLTokenizer) Text() string {
	return p.text.String()
}

// Name returns the tag name of a StartTagToken or EndTagToken as written in
// the input.
func (p *HTMLTokenizer) Name() string {
	return p.tagName
}

// Implied reports whether the current EndTagToken was synthesized to close
// an element the input left open.
func (p *HTMLTokenizer) Implied() bool {
	return p.implied
}

// AttributeCount returns the number of attributes of the current start tag.
func (p *HTMLTokenizer) AttributeCount() int {
	return len(p.attributes)
}

// AttributeName returns the name of attribute i. It panics if i is out of
// range.
func (p *HTMLTokenizer) AttributeName(i int) string {
	return p.attributes[i].Name
}

// AttributeValue returns the decoded value of attribute i, and false if the
// attribute was written without a value. It panics if i is out of range.
func (p *HTMLTokenizer) AttributeValue(i int) (string, bool) {
	a := p.attributes[i]
	return a.Value, a.HasValue
}

// Attributes returns the attributes of the current start tag in input
// order. The slice must not be modified.
func (p *HTMLTokenizer) Attributes() []Attribute {
	return p.attributes
}

// Token returns a copy of the current token. tt is the value last returned
// by Next.
func (p *HTMLTokenizer) Token(tt TokenType) Token {
	t := Token{TokenType: tt}
	switch tt {
	case StartTagToken:
		t.TagName = p.tagName
		if len(p.attributes) > 0 {
			t.Attributes = append([]Attribute(nil), p.attributes...)
		}
	case EndTagToken:
		t.TagName = p.tagName
		t.Implied = p.implied
	case TextToken, CommentToken:
		t.Data = p.text.String()
	case DoctypeToken:
		t.TagName = p.tagName
		t.Data = p.text.String()
	}
	return t
}

// Next advances to the next token and returns its type. Once the input is
// exhausted Next returns an end tag for every element still open, innermost
// first, and then EOFToken on every call.
func (p *HTMLTokenizer) Next() TokenType {
	p.implied = false
	p.attributes = nil
	p.text.Reset()

	switch p.currentState {
	case openCloseState:
		p.currentState = normalState
		if closeTagRequired(p.tagName) {
			// startTag pushed it, take it off again
			p.elementStack = p.elementStack[:len(p.elementStack)-1]
			return EndTagToken
		}
	case poppingState:
		p.popTags()
		return EndTagToken
	case reopenState:
		p.currentState = normalState
		t := p.pending
		p.pending = pendingTag{}
		return p.openTag(t.name, t.attributes, t.selfClosed)
	}

	for {
		if p.offset >= p.limit {
			n := len(p.elementStack)
			if n == 0 {
				return EOFToken
			}
			p.tagName = p.elementStack[n-1]
			p.elementStack = p.elementStack[:n-1]
			p.implied = true
			p.log.Debugf("closing <%s> left open at end of input", p.tagName)
			return EndTagToken
		}

		if p.data[p.offset] != '<' {
			p.parseText()
			return TextToken
		}

		p.offset++
		if p.offset >= p.limit {
			p.setText("<")
			return TextToken
		}

		ch := p.data[p.offset]
		switch {
		case ch == '!':
			return p.parseComment()
		case ch == '/':
			if tt, ok := p.parseEndTag(); ok {
				return tt
			}
		case ch == '?':
			p.stripProcessingInstruction()
		case isAlpha(ch):
			return p.parseStartTag()
		default:
			p.setText("<")
			p.parseText()
			return TextToken
		}
	}
}

func (p *HTMLTokenizer) setText(s string) {
	p.text.Reset()
	p.text.WriteString(s)
}

// fallback turns everything consumed since start into text and keeps
// reading text up to the next '<'.
func (p *HTMLTokenizer) fallback(start int, what string) TokenType {
	p.log.Debugf("malformed %s at offset %d, treating as text", what, start)
	p.setText(p.data[start:p.offset])
	p.parseText()
	return TextToken
}

// skipSpaces skips zero or more spaces and reports whether it skipped any.
func (p *HTMLTokenizer) skipSpaces() bool {
	start := p.offset
	for p.offset < p.limit && isSpace(p.data[p.offset]) {
		p.offset++
	}
	return p.offset > start
}

func (p *HTMLTokenizer) parseText() {
	for p.offset < p.limit {
		switch ch := p.data[p.offset]; ch {
		case '&':
			p.parseAmp(&p.text)
		case '<':
			return
		default:
			p.text.WriteByte(ch)
			p.offset++
		}
	}
}

// parseAmp decodes the character reference at p.offset into buf. A
// reference that does not decode is copied through literally. On return
// p.offset is at the first character the caller has to look at.
func (p *HTMLTokenizer) parseAmp(buf *strings.Builder) {
	start := p.offset

	p.offset++
	if p.offset >= p.limit {
		buf.WriteByte('&')
		return
	}

	ch := p.data[p.offset]
	switch {
	case ch == '#':
		p.offset++
		if p.offset >= p.limit {
			buf.WriteString(p.data[start:p.offset])
			return
		}

		ch = p.data[p.offset]
		hex := ch == 'x' || ch == 'X'
		if !hex && !isDigit(ch) {
			buf.WriteString(p.data[start:p.offset])
			return
		}
		if hex {
			p.offset++
		}
		digitsStart := p.offset

		value := 0
		for {
			if p.offset >= p.limit {
				buf.WriteString(p.data[start:p.offset])
				return
			}
			ch = p.data[p.offset]
			if ch == ';' {
				if p.offset == digitsStart {
					// "&#x;" has no digits to decode
					buf.WriteString(p.data[start : p.offset+1])
				} else {
					buf.WriteRune(codePoint(value))
				}
				p.offset++
				return
			}

			var d int
			if hex {
				d = hexValue(ch)
			} else if isDigit(ch) {
				d = int(ch - '0')
			} else {
				d = -1
			}
			if d < 0 {
				buf.WriteString(p.data[start:p.offset])
				return
			}
			if hex {
				value = value*16 + d
			} else {
				value = value*10 + d
			}
			if value > utf8.MaxRune {
				value = utf8.MaxRune + 1
			}
			p.offset++
		}

	case isAlpha(ch):
		for {
			p.offset++
			if p.offset >= p.limit {
				buf.WriteString(p.data[start:p.offset])
				return
			}

			ch = p.data[p.offset]
			if ch == ';' {
				if r, ok := namedEntities[p.data[start+1:p.offset]]; ok {
					buf.WriteRune(r)
				} else {
					buf.WriteString(p.data[start : p.offset+1])
				}
				p.offset++
				return
			}
			if !isAlphaNumeric(ch) {
				buf.WriteString(p.data[start:p.offset])
				return
			}
		}

	default:
		buf.WriteByte('&')
	}
}

// parseComment handles "<!". It returns a CommentToken for a complete
// "<!--...-->", a DoctypeToken for "<!D" and text for anything else.
func (p *HTMLTokenizer) parseComment() TokenType {
	start := p.offset - 1

	p.offset++
	if p.offset >= p.limit {
		p.setText("<!")
		return TextToken
	}

	switch p.data[p.offset] {
	case 'D', 'd':
		// no attempt is made at the doctype grammar, the doctype runs
		// to the next markup
		p.tagName = "!DOCTYPE"
		p.setText("<!")
		p.parseText()
		return DoctypeToken
	case '-':
	default:
		return p.fallback(start, "markup declaration")
	}

	p.offset++
	if p.offset >= p.limit || p.data[p.offset] != '-' {
		return p.fallback(start, "comment open")
	}

	// The first "--" after the opening one must be followed by '>'.
	end := strings.Index(p.data[p.offset+1:p.limit], "--")
	if end >= 0 {
		p.offset += 1 + end + len("--")
	}
	if end < 0 || p.offset >= p.limit {
		p.log.Debugf("unterminated comment at offset %d, treating as text", start)
		p.setText(p.data[start:p.limit])
		p.offset = p.limit
		return TextToken
	}
	if p.data[p.offset] != '>' {
		return p.fallback(start, "comment close")
	}
	p.offset++
	p.setText(p.data[start:p.offset])
	return CommentToken
}

// parseStartTag parses a tag at p.offset, just past the '<'. If the tag is
// malformed the consumed input is returned as text instead.
func (p *HTMLTokenizer) parseStartTag() TokenType {
	start := p.offset - 1

	for {
		p.offset++
		if p.offset >= p.limit {
			return p.fallback(start, "start tag")
		}
		if !isNamePart(p.data[p.offset]) {
			break
		}
	}

	name := p.data[start+1 : p.offset]

	var attrs []Attribute
	if p.skipSpaces() {
		for {
			attrName, ok := p.parseAttrName()
			if !ok {
				break
			}

			attr := Attribute{Name: attrName}
			skipped := p.skipSpaces()
			if p.offset < p.limit && p.data[p.offset] == '=' {
				p.offset++
				p.skipSpaces()
				attr.Value = p.parseAttrValue()
				attr.HasValue = true
				skipped = p.skipSpaces()
			}
			attrs = append(attrs, attr)

			if !skipped {
				break
			}
		}
	}

	if p.offset >= p.limit {
		return p.fallback(start, "start tag")
	}

	switch p.data[p.offset] {
	case '>':
		p.offset++
		return p.startTag(name, attrs, false)
	case '/':
		p.offset++
		if p.offset < p.limit && p.data[p.offset] == '>' {
			p.offset++
			return p.startTag(name, attrs, true)
		}
	}
	return p.fallback(start, "start tag")
}

func (p *HTMLTokenizer) parseAttrName() (string, bool) {
	if p.offset >= p.limit || !isAlpha(p.data[p.offset]) {
		return "", false
	}

	start := p.offset
	for p.offset++; p.offset < p.limit && isNamePart(p.data[p.offset]); p.offset++ {
	}
	return p.data[start:p.offset], true
}

// parseAttrValue parses a quoted or unquoted attribute value, decoding
// character references. An unterminated quoted value yields "" with
// p.offset at the end of input.
func (p *HTMLTokenizer) parseAttrValue() string {
	if p.offset >= p.limit {
		return ""
	}

	var value strings.Builder
	quote := p.data[p.offset]

	if quote == '\'' || quote == '"' {
		p.offset++
		for p.offset < p.limit {
			ch := p.data[p.offset]
			if ch == quote {
				p.offset++
				return value.String()
			}
			if ch == '&' {
				p.parseAmp(&value)
			} else {
				value.WriteByte(ch)
				p.offset++
			}
		}
		return ""
	}

	for p.offset < p.limit {
		ch := p.data[p.offset]
		if isSpace(ch) || ch == '>' {
			break
		}
		if ch == '&' {
			p.parseAmp(&value)
		} else {
			value.WriteByte(ch)
			p.offset++
		}
	}
	return value.String()
}

// startTag is called once a start tag parsed cleanly.
func (p *HTMLTokenizer) startTag(name string, attrs []Attribute, selfClosed bool) TokenType {
	if n := len(p.elementStack); n > 0 && reopenCloses(name) && strings.EqualFold(p.elementStack[n-1], name) {
		p.pending = pendingTag{name: name, attributes: attrs, selfClosed: selfClosed}
		p.tagName = p.elementStack[n-1]
		p.elementStack = p.elementStack[:n-1]
		p.implied = true
		p.currentState = reopenState
		p.log.Debugf("<%s> closes the open <%s>", name, p.tagName)
		return EndTagToken
	}
	return p.openTag(name, attrs, selfClosed)
}

func (p *HTMLTokenizer) openTag(name string, attrs []Attribute, selfClosed bool) TokenType {
	p.tagName = name
	p.attributes = attrs

	// Elements without a tracked end tag are never pushed, so <img> or
	// <o:p> do not get a synthesized </img> or </o:p>.
	if closeTagRequired(name) {
		p.elementStack = append(p.elementStack, name)
	}
	if selfClosed {
		p.currentState = openCloseState
	}
	return StartTagToken
}

// parseEndTag parses "</name>" at p.offset, which is at the '/'. It returns
// false if the end tag closes nothing and was dropped.
func (p *HTMLTokenizer) parseEndTag() (TokenType, bool) {
	start := p.offset - 1

	p.offset++
	if p.offset >= p.limit {
		p.setText("</")
		return TextToken, true
	}
	if !isAlpha(p.data[p.offset]) {
		return p.fallback(start, "end tag"), true
	}

	for {
		p.offset++
		if p.offset >= p.limit {
			return p.fallback(start, "end tag"), true
		}
		if !isNamePart(p.data[p.offset]) {
			break
		}
	}

	name := p.data[start+2 : p.offset]
	p.skipSpaces()
	if p.offset >= p.limit || p.data[p.offset] != '>' {
		return p.fallback(start, "end tag"), true
	}
	p.offset++

	p.popIndex = lastIndexFold(p.elementStack, name)
	if p.popIndex < 0 {
		// Closing an element that is not open would let dynamic content
		// close its surrounding static layout, so the tag is dropped.
		p.log.Debugf("dropping </%s> at offset %d, no such element is open", name, start)
		return TextToken, false
	}

	p.elementStack[p.popIndex] = name
	p.popTags()
	return EndTagToken, true
}

// popTags pops one element off the stack. If that element is the one at
// popIndex the tokenizer returns to normalState, otherwise it stays in
// poppingState and the popped end tag is implied.
func (p *HTMLTokenizer) popTags() {
	top := len(p.elementStack) - 1
	p.tagName = p.elementStack[top]
	p.elementStack = p.elementStack[:top]

	if top == p.popIndex {
		p.currentState = normalState
		p.popIndex = -1
		return
	}
	p.currentState = poppingState
	p.implied = true
	p.log.Debugf("closing <%s> left open inside the closed element", p.tagName)
}

// stripProcessingInstruction drops "<?...>" (as pasted from word
// processors) up to and including the next '>'.
func (p *HTMLTokenizer) stripProcessingInstruction() {
	start := p.offset - 1
	for p.offset++; p.offset < p.limit; p.offset++ {
		if p.data[p.offset] == '>' {
			p.offset++
			break
		}
	}
	p.log.Debugf("stripped processing instruction at offset %d", start)
}

// UnescapeString decodes the character references in s the way the
// tokenizer decodes text. References that do not decode are kept as is.
func UnescapeString(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	p := &HTMLTokenizer{data: s, limit: len(s)}
	var b strings.Builder
	b.Grow(len(s))
	for p.offset < p.limit {
		if ch := s[p.offset]; ch == '&' {
			p.parseAmp(&b)
		} else {
			b.WriteByte(ch)
			p.offset++
		}
	}
	return b.String()
}
