// Package render expands <%= key %> placeholders in strings, files and paths.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"github.com/tacogips/stackforge/internal/debug"
)

const (
	openTag  = "<%"
	closeTag = "%>"
)

var (
	identPattern   = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	bracketPattern = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_]*)\]`)

	log = debug.For("render")
)

// Renderer expands templates against a Context.
//
// A token whose body is a bare identifier is looked up directly; absent keys
// render as the empty string. Any other body is run as a text/template
// pipeline with the sprig function map, so `<%= .name | upper %>` works.
type Renderer struct {
	funcs template.FuncMap
}

// New creates a Renderer with the sprig text function map.
func New() *Renderer {
	return &Renderer{funcs: sprig.TxtFuncMap()}
}

var defaultRenderer = New()

// Render expands text with the package default Renderer.
func Render(text string, ctx Context) (string, error) {
	return defaultRenderer.Render(text, ctx)
}

// RenderFile expands the file at path with the package default Renderer.
func RenderFile(path string, ctx Context) (string, error) {
	return defaultRenderer.RenderFile(path, ctx)
}

// RenderPath expands a slash separated path with the package default Renderer.
func RenderPath(path string, ctx Context) (string, error) {
	return defaultRenderer.RenderPath(path, ctx)
}

// Render replaces every <%= %> token in text. <%- %> is accepted as a synonym
// since output is never escaped. An unterminated token is left verbatim.
func (r *Renderer) Render(text string, ctx Context) (string, error) {
	if !strings.Contains(text, openTag) {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))

	rest := text
	offset := 0
	for {
		start := strings.Index(rest, openTag)
		if start == -1 {
			out.WriteString(rest)
			break
		}

		afterOpen := rest[start+len(openTag):]
		if len(afterOpen) == 0 || (afterOpen[0] != '=' && afterOpen[0] != '-') {
			// Not an output tag; keep it and move on.
			out.WriteString(rest[:start+len(openTag)])
			rest = afterOpen
			offset += start + len(openTag)
			continue
		}

		end := strings.Index(afterOpen, closeTag)
		if end == -1 {
			out.WriteString(rest)
			break
		}

		out.WriteString(rest[:start])
		body := strings.TrimSpace(afterOpen[1:end])
		value, err := r.evaluate(body, ctx)
		if err != nil {
			return "", &RenderError{Token: rest[start : start+len(openTag)+end+len(closeTag)], Offset: offset + start, Cause: err}
		}
		out.WriteString(value)

		consumed := start + len(openTag) + end + len(closeTag)
		rest = rest[consumed:]
		offset += consumed
	}

	return out.String(), nil
}

func (r *Renderer) evaluate(body string, ctx Context) (string, error) {
	if body == "" {
		return "", nil
	}
	if identPattern.MatchString(body) {
		return ctx.String(body), nil
	}

	tmpl, err := template.New("expr").Funcs(r.funcs).Parse("{{ " + body + " }}")
	if err != nil {
		return "", err
	}
	// Missing keys are passed as "" so they render empty everywhere in the
	// pipeline, not just as a bare value.
	data := make(map[string]any, len(ctx))
	for k, v := range ctx {
		data[k] = v
	}
	fields := map[string]bool{}
	fieldNames(tmpl.Tree.Root, fields)
	for name := range fields {
		if _, ok := data[name]; !ok {
			data[name] = ""
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	if buf.String() == "<no value>" {
		return "", nil
	}
	return buf.String(), nil
}

// fieldNames collects the top-level keys referenced as .key in n.
func fieldNames(n parse.Node, names map[string]bool) {
	switch n := n.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			fieldNames(c, names)
		}
	case *parse.ActionNode:
		fieldNames(n.Pipe, names)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			fieldNames(c, names)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			fieldNames(a, names)
		}
	case *parse.FieldNode:
		names[n.Ident[0]] = true
	case *parse.ChainNode:
		fieldNames(n.Node, names)
	case *parse.IfNode:
		fieldNames(n.Pipe, names)
		fieldNames(n.List, names)
		fieldNames(n.ElseList, names)
	case *parse.WithNode:
		fieldNames(n.Pipe, names)
		fieldNames(n.List, names)
		fieldNames(n.ElseList, names)
	case *parse.RangeNode:
		fieldNames(n.Pipe, names)
		fieldNames(n.List, names)
		fieldNames(n.ElseList, names)
	}
}

// RenderFile reads path and renders its content.
func (r *Renderer) RenderFile(path string, ctx Context) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	log.Debugf("rendering file %s (%d bytes)", path, len(data))

	out, err := r.Render(string(data), ctx)
	if err != nil {
		var rerr *RenderError
		if errors.As(err, &rerr) {
			rerr.File = path
		}
		return "", err
	}
	return out, nil
}

// RenderPath renders each component of a slash separated path. Besides
// <%= %> tokens, a [key] placeholder is replaced when key is present in ctx;
// unknown brackets are left as they are.
func (r *Renderer) RenderPath(path string, ctx Context) (string, error) {
	components := strings.Split(path, "/")
	for i, component := range components {
		rendered, err := r.Render(component, ctx)
		if err != nil {
			return "", fmt.Errorf("failed to render path component %q: %w", component, err)
		}
		rendered = bracketPattern.ReplaceAllStringFunc(rendered, func(m string) string {
			key := m[1 : len(m)-1]
			if val, ok := ctx.Get(key); ok {
				return ValueToString(val)
			}
			return m
		})
		components[i] = rendered
	}
	return strings.Join(components, "/"), nil
}
