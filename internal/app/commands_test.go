package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/stackforge/internal/jsconfig"
	"github.com/tacogips/stackforge/internal/patch"
	"github.com/tacogips/stackforge/internal/stack"
)

func TestPatchFromSpecFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(target, []byte("ports:\n  - \"80:80\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "port.tmpl"), []byte(`"<%= http_port %>:80"`), 0644))

	specs := `patches:
  - file: docker-compose.yml
    tag: '"80:80"'
    literal: true
    template: port.tmpl
    log: web port updated
`
	specFile := filepath.Join(dir, "patches.yml")
	require.NoError(t, os.WriteFile(specFile, []byte(specs), 0644))

	opts := testOptions(t)
	opts.Answers = map[string]any{"http_port": 8080}

	var out bytes.Buffer
	a := testApp(&out, &stack.MockRunner{})
	require.NoError(t, a.Patch(context.Background(), opts, specFile))

	assert.Equal(t, "ports:\n  - \"8080:80\"\n", readFile(t, target))
	assert.Equal(t, "web port updated\n", out.String())
}

func TestPatchMissingTarget(t *testing.T) {
	dir := t.TempDir()
	specFile := filepath.Join(dir, "patches.yml")
	require.NoError(t, os.WriteFile(specFile, []byte("patches:\n  - file: missing.js\n    tag: x\n    replace: y\n"), 0644))

	a := testApp(&bytes.Buffer{}, &stack.MockRunner{})
	err := a.Patch(context.Background(), testOptions(t), specFile)

	var patchErr *patch.PatchError
	require.True(t, errors.As(err, &patchErr))
	assert.Equal(t, patch.FileAccess, patchErr.Type)
}

func TestSetSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.js")
	content := "module.exports = {\n  bot_manager: {\n    enable: false\n  }, /* end bot_manager */\n  port: 80\n};\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var out bytes.Buffer
	a := testApp(&out, &stack.MockRunner{})
	require.NoError(t, a.SetSection(context.Background(), path, "bot_manager", `{"enable": true, "tenants": ["a", "b"]}`))

	got := readFile(t, path)
	assert.Contains(t, got, `"enable": true`)
	assert.Contains(t, got, "/* end bot_manager */\n  port: 80\n};\n")
	assert.Contains(t, out.String(), "patched: "+path+" (bot_manager)")

	err := a.SetSection(context.Background(), path, "bot_manager", "{unclosed")
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ValidationFailed, appErr.Type)
}

func TestSetSectionRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.js")
	content := "module.exports = {\n  bot_manager: {\n    enable: false\n  }, /* end bot_manager */\n};\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a := testApp(&bytes.Buffer{}, &stack.MockRunner{})
	require.NoError(t, a.SetSectionRaw(context.Background(), path, "bot_manager", "{ enable: true /* on */ }"))
	assert.Contains(t, readFile(t, path), "bot_manager: { enable: true /* on */ }, /* end bot_manager */")

	err := a.SetSectionRaw(context.Background(), path, "bot_manager", "enable: true")
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ValidationFailed, appErr.Type)

	err = a.SetSectionRaw(context.Background(), path, "missing", "{}")
	assert.ErrorIs(t, err, jsconfig.ErrSectionNotFound)
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeting.txt")
	require.NoError(t, os.WriteFile(path, []byte("<%= stack %> on <%= domain %><%= missing %>"), 0644))

	opts := testOptions(t)
	opts.Answers = map[string]any{"domain": "example.com"}

	got, err := testApp(&bytes.Buffer{}, &stack.MockRunner{}).Render(opts, path)
	require.NoError(t, err)
	assert.Equal(t, "stackforge on example.com", got)
}

func TestStatus(t *testing.T) {
	runner := &stack.MockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("stackforge_mysql\treplicated\t1/1\tmysql:5.7\t\n"), nil
		},
	}
	opts := testOptions(t)
	services, err := testApp(&bytes.Buffer{}, runner).Status(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "stackforge_mysql", services[0].Name)
	assert.Equal(t, []string{"docker stack services stackforge --format {{.Name}}\t{{.Mode}}\t{{.Replicas}}\t{{.Image}}\t{{.Ports}}"}, runner.Calls())
}
