package css

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder implements every typed visitor and records the calls.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...interface{}) error {
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) Declaration(name string) error { return r.add("decl %s", name) }
func (r *recorder) Value(value string) error { return r.add("value %s", value) }
func (r *recorder) Number(f float64) error { return r.add("number %v", f) }
func (r *recorder) Percent(p float64) error { return r.add("percent %v", p) }
func (r *recorder) Length(f float64, u string) error { return r.add("length %v %s", f, u) }
func (r *recorder) StringValue(s string) error { return r.add("string %q", s) }
func (r *recorder) Ident(name string) error { return r.add("ident %s", name) }
func (r *recorder) Color(c RGB) error { return r.add("color %06x", uint32(c)) }
func (r *recorder) URL(u string) error { return r.add("url %q", u) }
func (r *recorder) Comma() error { return r.add(",") }
func (r *recorder) Slash() error { return r.add("/") }
func (r *recorder) Important() error { return r.add("!important") }

// valueRecorder only implements the untyped Visitor.
type valueRecorder struct {
	events []string
}

func (r *valueRecorder) Declaration(name string) error {
	r.events = append(r.events, name+":")
	return nil
}

func (r *valueRecorder) Value(value string) error {
	r.events = append(r.events, value)
	return nil
}

var parseTests = []struct {
	input string
	want  []string
}{
	{"", nil},
	{"   ", nil},
	{"background-color: #F00", []string{"decl background-color", "color ff0000"}},
	{"background-color: rgb(255,0,0)", []string{"decl background-color", "color ff0000"}},
	{"background-color: RGB( 255 , 0 , 0 )", []string{"decl background-color", "color ff0000"}},
	{"color: #abc", []string{"decl color", "color aabbcc"}},
	{"color: #A0B1c2", []string{"decl color", "color a0b1c2"}},
	{"color: rgb(100%, 50%, 0%)", []string{"decl color", "color ff7f00"}},
	{"color: rgb(300, .5, 20.7)", []string{"decl color", "color ff0014"}},
	{"width: 50%", []string{"decl width", "percent 50"}},
	{"width: 10PX", []string{"decl width", "length 10 px"}},
	{"width: 1.5em", []string{"decl width", "length 1.5 em"}},
	{"line-height: 1.25", []string{"decl line-height", "number 1.25"}},
	{"margin: -5px", []string{"decl margin", "length -5 px"}},
	{"margin: +5px", []string{"decl margin", "length 5 px"}},
	// the unary sign is consumed without being applied
	{"margin: - 5px", []string{"decl margin", "length 5 px"}},
	{"margin: -.5em", []string{"decl margin", "length 0.5 em"}},
	{"margin: 0 auto", []string{"decl margin", "number 0", "ident auto"}},
	{"font: 12px/1.5 Arial, 'Times New Roman'", []string{
		"decl font", "length 12 px", "/", "number 1.5", "ident Arial", ",", `string "Times New Roman"`,
	}},
	{"color: red !important", []string{"decl color", "ident red", "!important"}},
	{"color: red ! IMPORTANT", []string{"decl color", "ident red", "!important"}},
	{";;color:red;;", []string{"decl color", "ident red"}},
	{"color: red; width: 1px", []string{"decl color", "ident red", "decl width", "length 1 px"}},
	{"a: b !important c: d", []string{"decl a", "ident b", "!important", "decl c", "ident d"}},
	{"background: url(http://x/y.png) no-repeat", []string{
		"decl background", `url "http://x/y.png"`, "ident no-repeat",
	}},
	{"background: URL( 'a b.png' )", []string{"decl background", `url "a b.png"`}},
	{`background: url(a\(b\).png)`, []string{"decl background", `url "a(b).png"`}},
	{"background: url()", []string{"decl background", `url ""`}},
	{`content: '\41 B'`, []string{"decl content", `string "AB"`}},
	{`content: "it's"`, []string{"decl content", `string "it's"`}},
	{`content: 'a\'b'`, []string{"decl content", `string "a'b"`}},
	{"content: 'café'", []string{"decl content", `string "café"`}},
	{"font-family: Über", []string{"decl font-family", "ident Über"}},
	{"font-family: 宋体", []string{"decl font-family", "ident 宋体"}},
	{`content: '\d83d \de00 '`, []string{"decl content", `string "😀"`}},
	{`content: '\d83d x\de00'`, []string{"decl content", "string \"\uFFFDx\uFFFD\""}},
	{"color: redish", []string{"decl color", "ident redish"}},
	{"x: 10pxx", []string{"decl x", "length 10 px", "ident x"}},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		test := test
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			var r recorder
			require.NoError(t, NewParser(test.input).Parse(&r))
			if diff := cmp.Diff(test.want, r.events); diff != "" {
				t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var parseErrorTests = []struct {
	input  string
	msg    string
	offset int
	events []string
}{
	{"color:", "expected style value", 6, []string{"decl color"}},
	{"color: #12", "invalid #RGB color", 7, []string{"decl color"}},
	{"color: #1234567", "invalid #RGB color", 7, []string{"decl color"}},
	{"color red", "expected ':' after style name", 9, []string{"decl color"}},
	{": red", "expected style name", 1, nil},
	{"1px: red", "expected style name", 3, nil},
	{"color: red !imp", "unexpected character sequence", 11, []string{"decl color", "ident red"}},
	{"color: 'abc", "invalid quoted string", 7, []string{"decl color"}},
	{"color: 'a\nb'", "invalid quoted string", 7, []string{"decl color"}},
	{"color: @", "unrecognized character sequence", 7, []string{"decl color"}},
	{"color: rgb(1,2)", "unrecognized character sequence", 10, []string{"decl color", "ident rgb"}},
	{"a: url(x", "unrecognized character sequence", 6, []string{"decl a", "ident url"}},
	{"a: b, ;", "expected style value", 7, []string{"decl a", "ident b", ","}},
	{"a: /* c */ b", "expected style value", 4, []string{"decl a"}},
	{"font-family: \u202ex", "unrecognized character sequence", 13, []string{"decl font-family"}},
	{"font-family: a\u202eb", "unrecognized character sequence", 14, []string{"decl font-family", "ident a"}},
	{"font-family: a\u3000b", "unrecognized character sequence", 14, []string{"decl font-family", "ident a"}},
}

func TestParseErrors(t *testing.T) {
	for _, test := range parseErrorTests {
		test := test
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			var r recorder
			err := NewParser(test.input).Parse(&r)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %T", err)
			assert.Equal(t, test.msg, perr.Msg)
			assert.Equal(t, test.offset, perr.Offset)
			if diff := cmp.Diff(test.events, r.events); diff != "" {
				t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefaultFormatting(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"width: 50%", []string{"width:", "50%"}},
		{"width: 49.5%", []string{"width:", "50%"}},
		{"width: 12.5%", []string{"width:", "13%"}},
		{"margin-left: -50%", []string{"margin-left:", "-50%"}},
		{"margin-left: -12.5%", []string{"margin-left:", "-13%"}},
		{"width: 99999999999999999999%", []string{"width:", "2147483647%"}},
		{"width: -99999999999999999999%", []string{"width:", "-2147483648%"}},
		{"width: 10.0px", []string{"width:", "10px"}},
		{"x: 1.50", []string{"x:", "1.5"}},
		{`font-family: 'a"b'`, []string{"font-family:", `'a\"b'`}},
		{"background: url(a.png)", []string{"background:", "url('a.png')"}},
		{"color: #F00", []string{"color:", "#ff0000"}},
		{"color: rgb(0, 128, 255)", []string{"color:", "#0080ff"}},
		{"font: bold 1em/2 serif, sans", []string{"font:", "bold", "1em", "2", "serif", "sans"}},
		{"color: red !important", []string{"color:", "red"}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			var r valueRecorder
			require.NoError(t, NewParser(test.input).Parse(&r))
			assert.Equal(t, test.want, r.events)
		})
	}
}

func TestVisitorErrorStopsParse(t *testing.T) {
	stop := errors.New("stop")
	v := &stoppingVisitor{err: stop}
	err := NewParser("a: 1; b: 2").Parse(v)
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, v.calls)
}

type stoppingVisitor struct {
	err   error
	calls int
}

func (v *stoppingVisitor) Declaration(string) error { return nil }

func (v *stoppingVisitor) Value(string) error {
	v.calls++
	return v.err
}

func TestPosition(t *testing.T) {
	p := NewParser("a: b ")
	require.NoError(t, p.Parse(&recorder{}))
	assert.Equal(t, 5, p.Position())
}

func TestRGB(t *testing.T) {
	c := RGB(0x12a4fe)
	assert.Equal(t, uint8(0x12), c.R())
	assert.Equal(t, uint8(0xa4), c.G())
	assert.Equal(t, uint8(0xfe), c.B())
	assert.Equal(t, "#12a4fe", c.String())
	assert.Equal(t, "#000000", RGB(0).String())
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "Important", Important.String())
	assert.Equal(t, "Token(99)", Token(99).String())
}
