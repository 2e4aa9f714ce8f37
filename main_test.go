package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(strings.NewReader(stdin), &out).Run(context.Background(), append([]string{"richtext"}, args...))
	return out.String(), err
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, "<b>x &amp; y", "tokens")
	require.NoError(t, err)
	assert.Equal(t, "StartTag(b)\nText(\"x & y\")\nEndTag(b)[implied]\n", out)
}

func TestStyleCommand(t *testing.T) {
	out, err := run(t, "", "style", "color: red; font: 12px/1.5 Arial, serif !important")
	require.NoError(t, err)
	assert.Equal(t, "color: red\nfont: 12px/1.5 Arial, serif !important\n", out)

	out, err = run(t, "", "style", "--background", "background: url(x.png) #F00")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000\n", out)

	_, err = run(t, "", "style", "color:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected style value")

	_, err = run(t, "", "style")
	assert.Error(t, err)
}

func TestSanitizeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	require.NoError(t, os.WriteFile(in, []byte(`<p style="color: red">a<script>b</script><i>c</i>`), 0o600))

	out, err := run(t, "", "sanitize", in)
	require.NoError(t, err)
	assert.Equal(t, `<p style="color: red">a<i>c</i></p>`, out)

	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("tags:\n  i: []\ndrop_content: [script]\n"), 0o600))

	out, err = run(t, "", "sanitize", "--policy", policy, in)
	require.NoError(t, err)
	assert.Equal(t, `a<i>c</i>`, out)

	out, err = run(t, `<a href="javascript:x()">l</a>`, "sanitize")
	require.NoError(t, err)
	assert.Equal(t, `<a>l</a>`, out)

	_, err = run(t, "", "sanitize", filepath.Join(dir, "missing.html"))
	assert.Error(t, err)
}

func TestPolicyCommand(t *testing.T) {
	out, err := run(t, "", "policy")
	require.NoError(t, err)
	assert.Contains(t, out, "allow_relative_urls: true")
	assert.Contains(t, out, "- https")

	policy := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("tags:\n  nosuchtag: []\n"), 0o600))
	_, err = run(t, "", "policy", "--policy", policy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuchtag")
}
