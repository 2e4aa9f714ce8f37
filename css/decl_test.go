package css

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarations(t *testing.T) {
	got, err := Declarations("font: 12px/1.5 Arial, serif; color: RED !important;; background: url('x.png')")
	require.NoError(t, err)

	want := []Decl{
		{Property: "font", Values: []Value{
			{Kind: LengthKind, Number: 12, Unit: "px"},
			{Kind: NumberKind, Number: 1.5, Sep: '/'},
			{Kind: IdentKind, Text: "Arial"},
			{Kind: IdentKind, Text: "serif", Sep: ','},
		}},
		{Property: "color", Values: []Value{{Kind: IdentKind, Text: "RED"}}, Important: true},
		{Property: "background", Values: []Value{{Kind: URLKind, Text: "x.png"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclarationsError(t *testing.T) {
	decls, err := Declarations("color: red; width:")
	assert.Error(t, err)
	assert.Nil(t, decls)
}

func TestFormatDecls(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"font: 12px/1.5 Arial, serif; color: RED !important", "font: 12px/1.5 Arial, serif; color: RED !important"},
		{" margin : 0 auto ;", "margin: 0 auto"},
		{"width:50.0%;height:10.50PT", "width: 50%; height: 10.5pt"},
		{"width: 12.5%; margin-left: -50%", "width: 12.5%; margin-left: -50%"},
		{"width: 100000000000000000000%", "width: 100000000000000000000%"},
		{"color: #FFF; background: rgb(1, 2, 3)", "color: #ffffff; background: #010203"},
		{`content: "say \"hi\""`, `content: 'say \"hi\"'`},
		{"", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			decls, err := Declarations(tt.in)
			require.NoError(t, err)
			out := FormatDecls(decls)
			assert.Equal(t, tt.out, out)

			// formatted output parses back to the same declarations
			again, err := Declarations(out)
			require.NoError(t, err)
			assert.Equal(t, out, FormatDecls(again))
		})
	}
}

func TestExtractBackgroundColor(t *testing.T) {
	tests := []struct {
		style string
		color RGB
		ok    bool
	}{
		{"background-color: #F00", 0xff0000, true},
		{"background-color: rgb(255, 0, 0)", 0xff0000, true},
		{"background: white url(x.png) no-repeat", 0xffffff, true},
		{"BACKGROUND: Navy", 0x000080, true},
		{"background: red; background-color: blue", 0x0000ff, true},
		{"background-color: blue; color: red", 0x0000ff, true},
		{"background: transparent", 0, false},
		{"color: red", 0, false},
		{"background: red; color:", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.style, func(t *testing.T) {
			t.Parallel()
			c, ok := ExtractBackgroundColor(tt.style)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.color, c)
		})
	}
}

func TestNamedColor(t *testing.T) {
	c, ok := NamedColor("LightGrey")
	assert.True(t, ok)
	assert.Equal(t, RGB(0xD3D3D3), c)

	c, ok = NamedColor("cornflowerblue")
	assert.True(t, ok)
	assert.Equal(t, "#6495ed", c.String())

	_, ok = NamedColor("notacolor")
	assert.False(t, ok)
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"plain", "plain"},
		{`it's`, `it\'s`},
		{`"q"`, `\"q\"`},
		{`a\b`, `a\\b`},
		{"a\nb", `a\a b`},
		{"tab\t", "tab\t"},
		{"café", "café"},
		{"\x7f", `\7f `},
		{"\xff", `\fffd `},
		{"ÿ", "ÿ"},
		{"€a", `\20ac a`},
		{"\u202ex", `\202e x`},
		{"😀", `\d83d \de00 `},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, EscapeString(tt.in), "%q", tt.in)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", `it's "quoted"`, `back\slash`, "line\nbreak", "ünï", "\x01\x1f", "€ 1", "\u202eevil", "a😀b"} {
		decls, err := Declarations("content: " + FormatString(s))
		require.NoError(t, err, "%q", s)
		require.Len(t, decls, 1)
		require.Len(t, decls[0].Values, 1)
		assert.Equal(t, s, decls[0].Values[0].Text)
	}
}
