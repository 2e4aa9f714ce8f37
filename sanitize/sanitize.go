// Package sanitize strips an HTML fragment down to the markup allowed by a
// Policy. Input is read with the forgiving tokenizer of package parser, so
// any input is accepted and the output always has balanced tags.
package sanitize

import (
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/net/html/atom"

	"github.com/heathj/richtext/css"
	"github.com/heathj/richtext/parser"
)

// Result is the outcome of Sanitize. Warnings lists the style attributes
// that were dropped because they did not parse; use multierr.Errors to get
// them one by one. Warnings never stop sanitizing.
type Result struct {
	HTML     string
	Warnings error
}

type Sanitizer struct {
	policy     *Policy
	log        logrus.FieldLogger
	rewriteURL func(attr string, u *url.URL) string
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Sanitizer) {
		s.log = log
	}
}

// WithURLRewriter sets a function called for every href, src and style
// url that passed the scheme check. It returns the URL to write, or "" to
// drop it.
func WithURLRewriter(fn func(attr string, u *url.URL) string) Option {
	return func(s *Sanitizer) {
		s.rewriteURL = fn
	}
}

// New creates a Sanitizer. A nil policy means DefaultPolicy.
func New(policy *Policy, opts ...Option) *Sanitizer {
	if policy == nil {
		policy = DefaultPolicy
	}
	s := &Sanitizer{policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.WithField("component", "sanitize")
	}
	return s
}

// Sanitize builds a sanitized version of the HTML fragment in.
func (s *Sanitizer) Sanitize(in string) (*Result, error) {
	var b strings.Builder
	warnings, err := s.SanitizeTo(&b, in)
	if err != nil {
		return nil, err
	}
	return &Result{HTML: b.String(), Warnings: warnings}, nil
}

// SanitizeTo writes the sanitized version of in to w. The first error
// holds the warnings, the second the error writing to w.
func (s *Sanitizer) SanitizeTo(w io.Writer, in string) (warnings error, err error) {
	z := parser.NewHTMLTokenizer(in, parser.WithLogger(s.log))

	var (
		out []parser.Token
		// depth counts the open elements inside a dropped element. The
		// tokenizer balances every tracked start tag, so the drop ends
		// when depth is back to zero.
		depth int
	)
	for {
		tt := z.Next()
		if tt == parser.EOFToken {
			break
		}
		t := z.Token(tt)

		if depth > 0 {
			switch {
			case tt == parser.StartTagToken && parser.CloseTagRequired(t.TagName):
				depth++
			case tt == parser.EndTagToken:
				depth--
			}
			continue
		}

		switch tt {
		case parser.TextToken:
			out = append(out, t)

		case parser.StartTagToken:
			name := lookup(t.TagName)
			if s.policy.DropContent[name] {
				if parser.CloseTagRequired(t.TagName) {
					depth = 1
				}
				s.log.WithField("tag", t.TagName).Debug("dropping element and its content")
				continue
			}
			tag, ok := s.policy.AllowedTags[name]
			if !ok {
				s.log.WithField("tag", t.TagName).Debug("dropping tag")
				continue
			}
			t.TagName = strings.ToLower(t.TagName)
			t.Attributes, warnings = s.attributes(t.TagName, tag, t.Attributes, warnings)
			out = append(out, t)

		case parser.EndTagToken:
			name := lookup(t.TagName)
			if _, ok := s.policy.AllowedTags[name]; !ok || s.policy.DropContent[name] {
				continue
			}
			t.TagName = strings.ToLower(t.TagName)
			out = append(out, t)

		default:
			s.log.WithField("token", tt).Debug("dropping markup")
		}
	}

	if err := parser.Render(w, out); err != nil {
		return warnings, errors.Wrap(err, "writing sanitized html")
	}
	return warnings, nil
}

func (s *Sanitizer) attributes(tagName string, tag Tag, attrs []parser.Attribute, warnings error) ([]parser.Attribute, error) {
	kept := attrs[:0]
	for _, attr := range attrs {
		key := lookup(attr.Name)
		log := s.log.WithFields(logrus.Fields{"tag": tagName, "attr": attr.Name})
		if !tag.hasAttr(key) {
			log.Debug("dropping attribute")
			continue
		}
		attr.Name = key.String()

		if attr.HasValue {
			switch key {
			case atom.Style:
				style, err := s.style(attr.Value)
				if err != nil {
					warnings = multierr.Append(warnings, errors.Wrapf(err, "style of <%s>", tagName))
					log.WithError(err).Debug("dropping unparsable style")
					continue
				}
				attr.Value = style
			case atom.Href, atom.Src:
				attr.Value = s.url(key.String(), attr.Value)
			}
			if attr.Value == "" && (key == atom.Style || key == atom.Href || key == atom.Src) {
				log.Debug("dropping attribute, nothing left")
				continue
			}
		}
		kept = append(kept, attr)
	}
	if len(kept) == 0 {
		return nil, warnings
	}
	return kept, warnings
}

// style keeps the allowed declarations of a style attribute. A url that
// does not pass the policy removes its whole declaration.
func (s *Sanitizer) style(value string) (string, error) {
	decls, err := css.Declarations(value)
	if err != nil {
		return "", err
	}

	kept := decls[:0]
outer:
	for _, d := range decls {
		if !s.policy.AllowedStyles[strings.ToLower(d.Property)] {
			continue
		}
		for i := range d.Values {
			v := &d.Values[i]
			if v.Kind != css.URLKind {
				continue
			}
			v.Text = s.url("style", v.Text)
			if v.Text == "" {
				continue outer
			}
		}
		kept = append(kept, d)
	}
	return css.FormatDecls(kept), nil
}

// url returns the value to write for a URL attribute or "" if the URL is
// not allowed.
func (s *Sanitizer) url(attr, val string) string {
	u, err := url.Parse(strings.TrimSpace(val))
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		if !s.policy.AllowRelativeURLs {
			return ""
		}
	} else if !s.policy.AllowedSchemes[scheme] {
		return ""
	}

	if s.rewriteURL != nil {
		return s.rewriteURL(attr, u)
	}
	return u.String()
}
