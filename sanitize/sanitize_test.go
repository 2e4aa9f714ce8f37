package sanitize

import (
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var sanitizeTests = []struct {
	name     string
	in       string
	out      string
	warnings int
}{
	{
		name: "script",
		in:   `<p onclick="x()">hi<script>alert(1)</script> there</p>`,
		out:  `<p>hi there</p>`,
	},
	{
		name: "markup inside script",
		in:   `<script>a<b>c</b></script>d`,
		out:  `d`,
	},
	{
		name: "unclosed",
		in:   `<div><p>unclosed`,
		out:  `<div><p>unclosed</p></div>`,
	},
	{
		name: "stray end tag",
		in:   `<b>x</i></b>`,
		out:  `<b>x</b>`,
	},
	{
		name: "table repair",
		in:   `<table><tr><td>a<td>b</table>`,
		out:  `<table><tr><td>a</td><td>b</td></tr></table>`,
	},
	{
		name: "javascript href",
		in:   `<a href="javascript:alert(1)">x</a>`,
		out:  `<a>x</a>`,
	},
	{
		name: "encoded javascript href",
		in:   `<a href="&#106;avascript:alert(1)">x</a>`,
		out:  `<a>x</a>`,
	},
	{
		name: "http href",
		in:   `<a href="http://example.com/?a=1&amp;b=2" target=_blank>x</a>`,
		out:  `<a href="http://example.com/?a=1&amp;b=2" target="_blank">x</a>`,
	},
	{
		name: "relative href",
		in:   `<a href="/rel">x</a>`,
		out:  `<a href="/rel">x</a>`,
	},
	{
		name: "event handler",
		in:   `<img src="x.png" onerror="alert(1)">`,
		out:  `<img src="x.png">`,
	},
	{
		name: "filter styles",
		in:   `<span style="color: red; position: absolute; font-weight: bold">x</span>`,
		out:  `<span style="color: red; font-weight: bold">x</span>`,
	},
	{
		name: "style with nothing allowed",
		in:   `<span style="position: absolute">x</span>`,
		out:  `<span>x</span>`,
	},
	{
		name:     "broken style",
		in:       `<span style="color:">x</span><b style="a b">y</b>`,
		out:      `<span>x</span><b>y</b>`,
		warnings: 2,
	},
	{
		name: "percentages are kept",
		in:   `<p style="margin-left: -50%; width: 12.5%; height: 100000000000000000000%">x</p>`,
		out:  `<p style="margin-left: -50%; width: 12.5%; height: 100000000000000000000%">x</p>`,
	},
	{
		name:     "bidi override in style",
		in:       "<span style=\"font-family: '\u202eevil', serif\">x</span><b style=\"font-family: \u202eevil\">y</b>",
		out:      `<span style="font-family: '\202e evil', serif">x</span><b>y</b>`,
		warnings: 1,
	},
	{
		name: "style url",
		in:   `<div style="background: url(http://x/y.png)"></div>`,
		out:  `<div style="background: url('http://x/y.png')"></div>`,
	},
	{
		name: "style javascript url",
		in:   `<div style="background: url('javascript:alert(1)') red; color: blue"></div>`,
		out:  `<div style="color: blue"></div>`,
	},
	{
		name:     "unquoted url with parenthesis",
		in:       `<div style="background: url(javascript:alert(1)) red; color: blue"></div>`,
		out:      `<div></div>`,
		warnings: 1,
	},
	{
		name: "unknown and upper case tags",
		in:   `<o:p>x</o:p><FONT COLOR=red>y</FONT>`,
		out:  `x<font color="red">y</font>`,
	},
	{
		name: "comments and doctype",
		in:   `<!DOCTYPE html><!-- c -->text`,
		out:  `text`,
	},
	{
		name: "head",
		in:   `<head><title>T</title></head><b>x</b>`,
		out:  `<b>x</b>`,
	},
	{
		name: "self closed drop content",
		in:   `<script/>after`,
		out:  `after`,
	},
	{
		name: "text is escaped",
		in:   `1 < 2 &amp; 3`,
		out:  `1 &lt; 2 &amp; 3`,
	},
	{
		name: "attribute quoting",
		in:   `<span title='say "hi"'>x</span>`,
		out:  `<span title="say &quot;hi&quot;">x</span>`,
	},
}

func TestSanitize(t *testing.T) {
	s := New(nil, WithLogger(quietLogger()))
	for _, tt := range sanitizeTests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := s.Sanitize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.out, res.HTML)
			assert.Len(t, multierr.Errors(res.Warnings), tt.warnings)
		})
	}
}

func TestURLRewriter(t *testing.T) {
	s := New(nil, WithLogger(quietLogger()), WithURLRewriter(func(attr string, u *url.URL) string {
		if attr == "href" {
			return ""
		}
		return "https://proxy/?u=" + url.QueryEscape(u.String())
	}))

	res, err := s.Sanitize(`<img src="http://x/y.png"><a href="http://x">l</a>`)
	require.NoError(t, err)
	assert.Equal(t, `<img src="https://proxy/?u=http%3A%2F%2Fx%2Fy.png"><a>l</a>`, res.HTML)
}

func TestSanitizeWithPolicy(t *testing.T) {
	p, err := ParsePolicy([]byte(`
tags:
  p: [class]
  a: [href]
schemes: [https]
drop_content: [script]
`))
	require.NoError(t, err)

	res, err := New(p, WithLogger(quietLogger())).Sanitize(
		`<p class=c id=i style="color: red"><a href="http://x">l</a><a href="https://x">m</a><a href="/r">r</a></p><div>d</div>`)
	require.NoError(t, err)
	assert.Equal(t, `<p class="c"><a>l</a><a href="https://x">m</a><a>r</a></p>d`, res.HTML)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSanitizeToWriteError(t *testing.T) {
	_, err := New(nil, WithLogger(quietLogger())).SanitizeTo(failingWriter{}, "<b>x</b>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSanitizeIsStable(t *testing.T) {
	s := New(nil, WithLogger(quietLogger()))
	in := `<div style="font: 12px/1.5 Arial, serif"><p>a<p>b<a href="http://x/?q=1&amp;r=2">c</div>`
	once, err := s.Sanitize(in)
	require.NoError(t, err)
	twice, err := s.Sanitize(once.HTML)
	require.NoError(t, err)
	assert.Equal(t, once.HTML, twice.HTML)
	assert.True(t, strings.HasPrefix(once.HTML, `<div style="font: 12px/1.5 Arial, serif">`))
}
