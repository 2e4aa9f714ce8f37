package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"\u00a0", "&nbsp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"\u00a0", "&nbsp;",
		"\"", "&quot;",
	)
)

// https://html.spec.whatwg.org/#escapingString
func escapeString(s string, attrVal bool) string {
	if attrVal {
		return attrEscaper.Replace(s)
	}
	return textEscaper.Replace(s)
}

// EscapeText escapes s for use as HTML character data.
func EscapeText(s string) string {
	return escapeString(s, false)
}

// EscapeAttribute escapes s for use inside a double quoted attribute value.
func EscapeAttribute(s string) string {
	return escapeString(s, true)
}

// Render writes tokens back out as HTML. Text and attribute values are
// re-escaped, attributes are written in their original order, comments and
// doctypes are written as they were read.
func Render(w io.Writer, tokens []Token) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	for i := range tokens {
		if err := renderToken(bw, &tokens[i]); err != nil {
			return errors.Wrapf(err, "rendering %s", tokens[i].TokenType)
		}
	}
	return bw.Flush()
}

// Serialize is Render into a string.
func Serialize(tokens []Token) string {
	var b strings.Builder
	// strings.Builder never fails a write
	_ = Render(&b, tokens)
	return b.String()
}

func renderToken(w *bufio.Writer, t *Token) error {
	switch t.TokenType {
	case TextToken:
		_, err := w.WriteString(escapeString(t.Data, false))
		return err
	case CommentToken, DoctypeToken:
		_, err := w.WriteString(t.Data)
		return err
	case EndTagToken:
		_, err := w.WriteString("</" + t.TagName + ">")
		return err
	case StartTagToken:
		w.WriteByte('<')
		w.WriteString(t.TagName)
		for _, a := range t.Attributes {
			w.WriteByte(' ')
			w.WriteString(a.Name)
			if a.HasValue {
				w.WriteString("=\"")
				w.WriteString(escapeString(a.Value, true))
				w.WriteByte('"')
			}
		}
		return w.WriteByte('>')
	}
	return nil
}
