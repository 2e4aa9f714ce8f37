package parser

import (
	"io"

	"github.com/pkg/errors"
)

// Parser drains an HTMLTokenizer into Token values for callers that do not
// need the pull interface.
type Parser struct {
	Tokenizer *HTMLTokenizer
}

func NewParser(htmlIn string, opts ...Option) *Parser {
	return &Parser{
		Tokenizer: NewHTMLTokenizer(htmlIn, opts...),
	}
}

// ReadParser reads all of r and creates a Parser over it.
func ReadParser(r io.Reader, opts ...Option) (*Parser, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading html")
	}
	return NewParser(string(b), opts...), nil
}

// Tokens returns every token up to, but not including, EOFToken. Calling
// it a second time returns nil.
func (p *Parser) Tokens() []Token {
	var tokens []Token
	p.Each(func(t Token) {
		tokens = append(tokens, t)
	})
	return tokens
}

// Each calls fn for every token up to, but not including, EOFToken.
func (p *Parser) Each(fn func(Token)) {
	for {
		tt := p.Tokenizer.Next()
		if tt == EOFToken {
			return
		}
		fn(p.Tokenizer.Token(tt))
	}
}
