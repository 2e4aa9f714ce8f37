package sanitize

import (
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

// Tag lists the attributes allowed on an element.
type Tag struct {
	Attrs []atom.Atom
}

func (t Tag) hasAttr(attr atom.Atom) bool {
	for _, a := range t.Attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// Policy decides what survives sanitizing. Elements missing from
// AllowedTags are removed but their content is kept, unless they are in
// DropContent.
type Policy struct {
	AllowedTags    map[atom.Atom]Tag
	AllowedStyles  map[string]bool
	AllowedSchemes map[string]bool
	// AllowRelativeURLs keeps href and src values without a scheme.
	AllowRelativeURLs bool
	DropContent       map[atom.Atom]bool
}

var (
	commonAttrs = []atom.Atom{atom.Class, atom.Dir, atom.Id, atom.Lang, atom.Style, atom.Title}
	blockAttrs  = append([]atom.Atom{atom.Align}, commonAttrs...)
	cellAttrs   = append([]atom.Atom{
		atom.Abbr, atom.Colspan, atom.Headers, atom.Height, atom.Rowspan, atom.Scope, atom.Width,
	}, blockAttrs...)
)

func tags(attrs []atom.Atom, names ...atom.Atom) map[atom.Atom]Tag {
	m := make(map[atom.Atom]Tag, len(names))
	for _, name := range names {
		m[name] = Tag{Attrs: attrs}
	}
	return m
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}

// DefaultPolicy keeps the formatting markup found in pasted rich text and
// drops anything scriptable.
var DefaultPolicy = func() *Policy {
	p := &Policy{
		AllowedTags: tags(commonAttrs,
			atom.Abbr, atom.B, atom.Big, atom.Cite, atom.Code,
			atom.Dd, atom.Del, atom.Dfn, atom.Dl, atom.Dt, atom.Em, atom.I,
			atom.Ins, atom.Kbd, atom.Label, atom.Q, atom.S, atom.Samp,
			atom.Small, atom.Span, atom.Strike, atom.Strong, atom.Sub,
			atom.Sup, atom.Tt, atom.U, atom.Var,
		),
		AllowedStyles: set(
			"background", "background-color",
			"border", "border-bottom", "border-bottom-color", "border-bottom-style",
			"border-bottom-width", "border-color", "border-left", "border-left-color",
			"border-left-style", "border-left-width", "border-right", "border-right-color",
			"border-right-style", "border-right-width", "border-style", "border-top",
			"border-top-color", "border-top-style", "border-top-width", "border-width",
			"color", "display", "font", "font-family", "font-size", "font-style",
			"font-variant", "font-weight", "height", "letter-spacing", "line-height",
			"list-style-type", "margin", "margin-bottom", "margin-left", "margin-right",
			"margin-top", "padding", "padding-bottom", "padding-left", "padding-right",
			"padding-top", "table-layout", "text-align", "text-decoration",
			"text-indent", "text-transform", "vertical-align", "white-space", "width",
		),
		AllowedSchemes:    set("http", "https", "mailto", "cid"),
		AllowRelativeURLs: true,
		DropContent: map[atom.Atom]bool{
			atom.Script: true, atom.Style: true, atom.Title: true, atom.Head: true,
			atom.Iframe: true, atom.Object: true, atom.Applet: true, atom.Noscript: true,
			atom.Select: true, atom.Textarea: true,
		},
	}

	for name, tag := range tags(blockAttrs,
		atom.Address, atom.Blockquote, atom.Center, atom.Div, atom.H1, atom.H2,
		atom.H3, atom.H4, atom.H5, atom.H6, atom.P, atom.Pre,
	) {
		p.AllowedTags[name] = tag
	}
	for name, tag := range tags(cellAttrs, atom.Td, atom.Th) {
		p.AllowedTags[name] = tag
	}

	extra := map[atom.Atom][]atom.Atom{
		atom.A:        {atom.Href, atom.Name, atom.Target},
		atom.Caption:  {atom.Align},
		atom.Col:      {atom.Align, atom.Span, atom.Width},
		atom.Colgroup: {atom.Align, atom.Span, atom.Width},
		atom.Font:     {atom.Color, atom.Face, atom.Size},
		atom.Hr:       {atom.Align, atom.Size, atom.Width},
		atom.Img:      {atom.Align, atom.Alt, atom.Height, atom.Src, atom.Usemap, atom.Width},
		atom.Li:       {atom.Type, atom.Value},
		atom.Ol:       {atom.Start, atom.Type},
		atom.Table:    {atom.Align, atom.Frame, atom.Width},
		atom.Tbody:    {atom.Align},
		atom.Tfoot:    {atom.Align},
		atom.Thead:    {atom.Align},
		atom.Tr:       {atom.Align},
		atom.Ul:       {atom.Type},
	}
	for name, attrs := range extra {
		p.AllowedTags[name] = Tag{Attrs: append(append([]atom.Atom{}, commonAttrs...), attrs...)}
	}
	return p
}()

// policyFile is the YAML form of a Policy.
type policyFile struct {
	Tags              map[string][]string `yaml:"tags"`
	Styles            []string            `yaml:"styles"`
	Schemes           []string            `yaml:"schemes"`
	AllowRelativeURLs bool                `yaml:"allow_relative_urls"`
	DropContent       []string            `yaml:"drop_content"`
}

func lookup(name string) atom.Atom {
	return atom.Lookup([]byte(strings.ToLower(strings.TrimSpace(name))))
}

// ParsePolicy reads a policy from YAML:
//
//	tags:
//	  a: [href, title]
//	  b: []
//	styles: [color, font-weight]
//	schemes: [http, https]
//	allow_relative_urls: true
//	drop_content: [script, style]
//
// Unknown keys, tag names and attribute names are errors.
func ParsePolicy(data []byte) (*Policy, error) {
	var f policyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decoding policy")
	}

	p := &Policy{
		AllowedTags:       make(map[atom.Atom]Tag, len(f.Tags)),
		AllowedStyles:     make(map[string]bool, len(f.Styles)),
		AllowedSchemes:    make(map[string]bool, len(f.Schemes)),
		AllowRelativeURLs: f.AllowRelativeURLs,
		DropContent:       make(map[atom.Atom]bool, len(f.DropContent)),
	}

	var err error
	for name, attrs := range f.Tags {
		tag := lookup(name)
		if tag == 0 {
			err = multierr.Append(err, errors.Errorf("unknown tag %q", name))
			continue
		}
		var t Tag
		for _, attr := range attrs {
			a := lookup(attr)
			if a == 0 {
				err = multierr.Append(err, errors.Errorf("unknown attribute %q of tag %q", attr, name))
				continue
			}
			t.Attrs = append(t.Attrs, a)
		}
		p.AllowedTags[tag] = t
	}
	for _, name := range f.DropContent {
		tag := lookup(name)
		if tag == 0 {
			err = multierr.Append(err, errors.Errorf("unknown drop_content tag %q", name))
			continue
		}
		p.DropContent[tag] = true
	}
	for _, s := range f.Styles {
		p.AllowedStyles[strings.ToLower(s)] = true
	}
	for _, s := range f.Schemes {
		p.AllowedSchemes[strings.ToLower(s)] = true
	}

	if err != nil {
		return nil, errors.Wrap(err, "invalid policy")
	}
	return p, nil
}

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading policy")
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, errors.Wrapf(err, "policy %s", path)
	}
	return p, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// MarshalYAML writes p in the form ParsePolicy reads.
func (p *Policy) MarshalYAML() (interface{}, error) {
	f := policyFile{
		Tags:              make(map[string][]string, len(p.AllowedTags)),
		Styles:            sortedKeys(p.AllowedStyles),
		Schemes:           sortedKeys(p.AllowedSchemes),
		AllowRelativeURLs: p.AllowRelativeURLs,
	}
	for tag, t := range p.AllowedTags {
		attrs := make([]string, 0, len(t.Attrs))
		for _, a := range t.Attrs {
			attrs = append(attrs, a.String())
		}
		sort.Strings(attrs)
		f.Tags[tag.String()] = attrs
	}

	drop := make(map[string]bool, len(p.DropContent))
	for tag, ok := range p.DropContent {
		drop[tag.String()] = ok
	}
	f.DropContent = sortedKeys(drop)
	return f, nil
}
