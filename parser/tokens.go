package parser

import (
	"fmt"
	"strings"
)

// TokenType identifies the kind of token returned by HTMLTokenizer.Next.
type TokenType uint

const (
	// EOFToken is returned once the input is exhausted and every open
	// element has been closed.
	EOFToken TokenType = iota
	// TextToken is decoded character data. A run of text may be split in
	// several TextTokens when the tokenizer recovers from bad markup.
	TextToken
	StartTagToken
	EndTagToken
	// CommentToken carries the comment including its "<!--" and "-->"
	// delimiters.
	CommentToken
	DoctypeToken
)

func (t TokenType) String() string {
	switch t {
	case EOFToken:
		return "EOF"
	case TextToken:
		return "Text"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case CommentToken:
		return "Comment"
	case DoctypeToken:
		return "Doctype"
	}
	return fmt.Sprintf("TokenType(%d)", uint(t))
}

// Attribute is a single name/value pair of a start tag. HasValue is false
// for attributes written without "=", e.g. <option selected>.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
}

func (a Attribute) String() string {
	if !a.HasValue {
		return a.Name
	}
	return fmt.Sprintf("%s=%q", a.Name, a.Value)
}

// Token is a snapshot of the tokenizer state after a call to Next.
type Token struct {
	TokenType  TokenType
	TagName    string
	Attributes []Attribute
	Data       string
	// Implied is set on end tags the tokenizer synthesized to repair
	// the element nesting.
	Implied bool
}

// Equal reports whether two tokens carry the same type, name, data and
// attributes. The Implied flag is ignored.
func (t *Token) Equal(o *Token) bool {
	if t.TokenType != o.TokenType || t.TagName != o.TagName || t.Data != o.Data {
		return false
	}
	if len(t.Attributes) != len(o.Attributes) {
		return false
	}
	for i := range t.Attributes {
		if t.Attributes[i] != o.Attributes[i] {
			return false
		}
	}
	return true
}

func (t *Token) String() string {
	var b strings.Builder
	b.WriteString(t.TokenType.String())
	switch t.TokenType {
	case StartTagToken, EndTagToken:
		b.WriteString("(")
		b.WriteString(t.TagName)
		for _, a := range t.Attributes {
			b.WriteByte(' ')
			b.WriteString(a.String())
		}
		b.WriteString(")")
		if t.Implied {
			b.WriteString("[implied]")
		}
	case TextToken, CommentToken, DoctypeToken:
		fmt.Fprintf(&b, "(%q)", t.Data)
	}
	return b.String()
}
