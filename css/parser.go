package css

import "github.com/pkg/errors"

// Parser parses the declaration list of an HTML style="" attribute:
//
//	declarations : declaration [ ';' declaration ]*
//	declaration  : IDENT ':' expr [ '!' 'important' ]? | /* empty */
//	expr         : term [ [ ',' | '/' ]? term ]*
//	term         : [ '+' | '-' ]? [ NUMBER | STRING | IDENT | COLOR | URL ]
//
// There is no error recovery. A style that does not follow the grammar
// fails as a whole and should be dropped by the caller.
type Parser struct {
	s *Scanner
}

// NewParser creates a new parser for a style attribute value.
func NewParser(style string) *Parser {
	return &Parser{s: NewScanner(style)}
}

// Position returns the byte offset the parser has read up to.
func (p *Parser) Position() int {
	return p.s.Pos()
}

// Parse parses the style and calls v for every declaration and value. A
// malformed style returns a *ParseError, use errors.As to get at it.
// Errors returned by v are passed through.
//
// Values have already been passed to v when a later part of the style
// fails to parse.
func (p *Parser) Parse(v Visitor) error {
	if err := p.next(); err != nil {
		return err
	}
	return p.parseDeclarations(v)
}

func (p *Parser) next() error {
	return p.s.Next()
}

func (p *Parser) error(msg string) error {
	return errors.WithStack(&ParseError{Offset: p.s.Pos(), Msg: msg})
}

func (p *Parser) parseDeclarations(v Visitor) error {
	for {
		for p.s.Token == Semicolon {
			if err := p.next(); err != nil {
				return err
			}
		}
		if p.s.Token == EOF {
			return nil
		}
		if err := p.parseDeclaration(v); err != nil {
			return err
		}
	}
}

func (p *Parser) parseDeclaration(v Visitor) error {
	if p.s.Token != Ident {
		return p.error("expected style name")
	}
	if err := v.Declaration(p.s.Literal); err != nil {
		return err
	}

	if err := p.next(); err != nil {
		return err
	}
	if p.s.Token != Colon {
		return p.error("expected ':' after style name")
	}

	if err := p.next(); err != nil {
		return err
	}
	if err := p.parseExpr(v); err != nil {
		return err
	}

	if p.s.Token == Important {
		if err := visitImportant(v); err != nil {
			return err
		}
		return p.next()
	}
	return nil
}

func (p *Parser) parseExpr(v Visitor) error {
	if err := p.parseTerm(v); err != nil {
		return err
	}

	for {
		var err error
		switch p.s.Token {
		case EOF, Semicolon, Important:
			return nil
		case Comma:
			err = visitComma(v)
		case Slash:
			err = visitSlash(v)
		}
		if err != nil {
			return err
		}
		if p.s.Token == Comma || p.s.Token == Slash {
			if err := p.next(); err != nil {
				return err
			}
		}

		if err := p.parseTerm(v); err != nil {
			return err
		}
	}
}

func (p *Parser) parseTerm(v Visitor) error {
	// A unary sign is read but not applied: "- 5px" is 5px. "-5px" scans
	// as a single negative number.
	if p.s.Token == Plus || p.s.Token == Minus {
		if err := p.next(); err != nil {
			return err
		}
	}

	var err error
	switch p.s.Token {
	case Number:
		switch p.s.Unit {
		case "":
			err = visitNumber(v, p.s.Number)
		case "%":
			err = visitPercent(v, p.s.Number)
		default:
			err = visitLength(v, p.s.Number, p.s.Unit)
		}
	case String:
		err = visitString(v, p.s.Literal)
	case Ident:
		err = visitIdent(v, p.s.Literal)
	case Color:
		err = visitColor(v, p.s.Color)
	case URL:
		err = visitURL(v, p.s.Literal)
	default:
		return p.error("expected style value")
	}
	if err != nil {
		return err
	}
	return p.next()
}
