package patch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/stackforge/internal/render"
)

const localJS = `module.exports = {
   datastores: {},
   bot_manager: {
      enable: false,
      slackBot: { botToken: "x" }
   },
   /* end bot_manager */
   tenants: {}
};
`

var botManagerTag = regexp.MustCompile(`bot_manager:\s*{[\s\S]*?},\s*\/\*\s*end\s*bot_manager\s*\*\/`)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApply_ReplacesBlockOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config/local.js", `module.exports = {
   datastores: {},
   bot_manager: { enable: false },
   /* end bot_manager */
   tenants: {}
};
`)

	var out bytes.Buffer
	err := NewPatcher(&out).Apply(context.Background(), []Spec{{
		File:    path,
		Tag:     botManagerTag,
		Replace: "bot_manager: {\"enable\":true},\n/* end bot_manager */",
	}})
	require.NoError(t, err)

	want := `module.exports = {
   datastores: {},
   bot_manager: {"enable":true},
/* end bot_manager */
   tenants: {}
};
`
	assert.Equal(t, want, readFile(t, path))
	assert.Equal(t, "patched: "+path+"\n", out.String())
}

func TestApply_SequentialFold(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "port: 80\nport: 80\n")

	specs := []Spec{
		{File: path, Tag: regexp.MustCompile(`port: 80`), Replace: "port: 8080", Silent: true},
		// Sees the output of the first spec.
		{File: path, Tag: regexp.MustCompile(`port: 8080`), Replace: "port: 9090", Silent: true},
	}
	require.NoError(t, NewPatcher(nil).Apply(context.Background(), specs))

	assert.Equal(t, "port: 9090\nport: 80\n", readFile(t, path))
}

func TestApply_AllMatches(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "x x x")

	err := NewPatcher(nil).Apply(context.Background(), []Spec{
		{File: path, Tag: regexp.MustCompile(`x`), Replace: "y", All: true, Silent: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "y y y", readFile(t, path))
}

func TestApply_NoMatchIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config/local.js", localJS)

	spec := Spec{File: path, Tag: regexp.MustCompile(`does_not_exist`), Replace: "boom"}
	require.NoError(t, NewPatcher(nil).Apply(context.Background(), []Spec{spec, spec}))
	assert.Equal(t, localJS, readFile(t, path))
}

func TestApply_ReapplyIsIdempotentWhenTagGone(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "listen 80;")

	spec := Spec{File: path, Tag: regexp.MustCompile(`listen 80;`), Replace: "listen 8080;", Silent: true}
	p := NewPatcher(nil)
	require.NoError(t, p.Apply(context.Background(), []Spec{spec}))
	require.NoError(t, p.Apply(context.Background(), []Spec{spec}))
	assert.Equal(t, "listen 8080;", readFile(t, path))
}

func TestApply_MissingFileAbortsSequence(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.txt", "a")
	third := writeFile(t, dir, "third.txt", "c")

	specs := []Spec{
		{File: first, Tag: regexp.MustCompile(`a`), Replace: "A", Silent: true},
		{File: filepath.Join(dir, "missing.txt"), Tag: regexp.MustCompile(`b`), Replace: "B"},
		{File: third, Tag: regexp.MustCompile(`c`), Replace: "C", Silent: true},
	}
	err := NewPatcher(nil).Apply(context.Background(), specs)
	require.Error(t, err)

	var perr *PatchError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, FileAccess, perr.Type)
	assert.Equal(t, 1, perr.Index)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.Equal(t, "A", readFile(t, first), "earlier specs stay applied")
	assert.Equal(t, "c", readFile(t, third), "later specs are not applied")
}

func TestApply_Template(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nginx/default.conf", "server {\n  listen 80;\n}\n")
	tmpl := writeFile(t, dir, "listen.tmpl", "listen <%= port %>;")

	err := NewPatcher(nil).Apply(context.Background(), []Spec{{
		File:     path,
		Tag:      regexp.MustCompile(`listen \d+;`),
		Template: tmpl,
		Data:     render.Context{"port": 8443},
		Silent:   true,
	}})
	require.NoError(t, err)
	assert.Equal(t, "server {\n  listen 8443;\n}\n", readFile(t, path))
}

func TestApply_LogMessages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "a b")

	var out bytes.Buffer
	err := NewPatcher(&out).Apply(context.Background(), []Spec{
		{File: path, Tag: regexp.MustCompile(`a`), Replace: "A", Log: "updated the a"},
		{File: path, Tag: regexp.MustCompile(`b`), Replace: "B", Silent: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "updated the a\n", out.String())
}

func TestApply_InvalidSpec(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "a")

	err := NewPatcher(nil).Apply(context.Background(), []Spec{
		{File: path, Tag: regexp.MustCompile(`a`), Replace: "x", Template: "y.tmpl"},
	})
	var perr *PatchError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, InvalidSpec, perr.Type)
}

func TestSubstitute(t *testing.T) {
	tag := regexp.MustCompile(`(\w+)=(\d+)`)

	got, n := Substitute("a=1 b=2", tag, "$2=$1", false, true)
	assert.Equal(t, "1=a b=2", got)
	assert.Equal(t, 1, n)

	got, n = Substitute("a=1 b=2", tag, "$x", false, false)
	assert.Equal(t, "$x b=2", got, "literal replacement keeps dollar signs")
	assert.Equal(t, 1, n)

	got, n = Substitute("a=1 b=2", tag, "${2}", true, true)
	assert.Equal(t, "1 2", got)
	assert.Equal(t, 2, n)

	got, n = Substitute("nothing", tag, "x", true, false)
	assert.Equal(t, "nothing", got)
	assert.Equal(t, 0, n)
}

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docker-compose.yml", "ports:\n  - \"80:80\"\n")
	writeFile(t, dir, "port.tmpl", `"<%= port %>:80"`)
	specPath := writeFile(t, dir, "patches.yml", strings.Join([]string{
		"patches:",
		"  - file: docker-compose.yml",
		"    tag: '\"80:80\"'",
		"    literal: true",
		"    template: port.tmpl",
		"    log: web port updated",
		"  - file: docker-compose.yml",
		"    tag: 'ports:'",
		"    replace: ''",
		"    silent: true",
	}, "\n"))

	specs, err := LoadSpecs(specPath, render.Context{"port": 9000})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), specs[0].File)
	assert.Equal(t, filepath.Join(dir, "port.tmpl"), specs[0].Template)
	assert.Equal(t, 9000, specs[0].Data["port"])
	assert.True(t, specs[1].Silent)

	var out bytes.Buffer
	require.NoError(t, NewPatcher(&out).Apply(context.Background(), specs))
	assert.Equal(t, "\n  - \"9000:80\"\n", readFile(t, filepath.Join(dir, "docker-compose.yml")))
	assert.Equal(t, "web port updated\n", out.String())
}

func TestLoadSpecs_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"missing tag", "patches:\n  - file: a\n    replace: x\n"},
		{"missing replacement", "patches:\n  - file: a\n    tag: x\n"},
		{"both replacements", "patches:\n  - file: a\n    tag: x\n    replace: y\n    template: z\n"},
		{"bad regex", "patches:\n  - file: a\n    tag: '('\n    replace: y\n"},
		{"bad yaml", "patches: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yml", tt.body)
			_, err := LoadSpecs(path, nil)
			assert.Error(t, err)
		})
	}
}
