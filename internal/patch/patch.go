// Package patch applies ordered regex find/replace edits to files on disk.
package patch

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/tacogips/stackforge/internal/debug"
	"github.com/tacogips/stackforge/internal/render"
)

var log = debug.For("patch")

// Spec describes a single edit of a file.
//
// Exactly one of Replace or Template supplies the replacement text. Only the
// first match of Tag is replaced unless All is set. A Tag that does not match
// leaves the file untouched without reporting an error.
type Spec struct {
	// File is the path of the file to edit.
	File string
	// Tag is the pattern to find.
	Tag *regexp.Regexp
	// Replace is the literal replacement text.
	Replace string
	// Template is a template file rendered with Data to produce the replacement.
	Template string
	// Data is the render context for Template.
	Data render.Context
	// Log overrides the progress line. Empty prints "patched: <file>".
	Log string
	// Silent suppresses the progress line.
	Silent bool
	// All replaces every match instead of the first one.
	All bool
	// Expand interprets $1 / ${name} in the replacement as submatch references.
	Expand bool
}

// Validate checks the spec is well formed.
func (s Spec) Validate() error {
	if s.File == "" {
		return fmt.Errorf("file is required")
	}
	if s.Tag == nil {
		return fmt.Errorf("tag is required")
	}
	if s.Replace != "" && s.Template != "" {
		return fmt.Errorf("replace and template are mutually exclusive")
	}
	return nil
}

// Patcher applies specs sequentially. Later specs see the effect of earlier
// ones on the same file.
type Patcher struct {
	out      io.Writer
	renderer *render.Renderer
}

// NewPatcher creates a Patcher that writes progress lines to out.
// A nil out discards them.
func NewPatcher(out io.Writer) *Patcher {
	if out == nil {
		out = io.Discard
	}
	return &Patcher{out: out, renderer: render.New()}
}

// Apply processes specs in order. The first failure aborts the sequence;
// specs applied before it stay applied.
func (p *Patcher) Apply(ctx context.Context, specs []Spec) error {
	log.Debugf("applying %d specs", len(specs))
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.applyOne(i, spec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Patcher) applyOne(index int, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return newPatchError(InvalidSpec, index, spec.File, "invalid spec", err)
	}

	replacement := spec.Replace
	if spec.Template != "" {
		rendered, err := p.renderer.RenderFile(spec.Template, spec.Data)
		if err != nil {
			return newPatchError(TemplateFailed, index, spec.File, "failed to render template", err)
		}
		replacement = rendered
	}

	f, err := os.OpenFile(spec.File, os.O_RDWR, 0)
	if err != nil {
		return newPatchError(FileAccess, index, spec.File, "cannot open file", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return newPatchError(FileAccess, index, spec.File, "cannot read file", err)
	}

	patched, n := Substitute(string(data), spec.Tag, replacement, spec.All, spec.Expand)
	log.Debugf("%s: %d match(es) for %s", spec.File, n, spec.Tag)

	if err := f.Truncate(0); err != nil {
		return newPatchError(FileAccess, index, spec.File, "cannot truncate file", err)
	}
	if _, err := f.WriteAt([]byte(patched), 0); err != nil {
		return newPatchError(FileAccess, index, spec.File, "cannot write file", err)
	}

	switch {
	case spec.Silent:
	case spec.Log == "":
		fmt.Fprintf(p.out, "patched: %s\n", spec.File)
	default:
		fmt.Fprintln(p.out, spec.Log)
	}
	return nil
}

// Substitute replaces the first match of tag in text (every match when all is
// set) and reports how many matches were replaced.
func Substitute(text string, tag *regexp.Regexp, replacement string, all, expand bool) (string, int) {
	if all {
		matches := tag.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			return text, 0
		}
		if expand {
			return tag.ReplaceAllString(text, replacement), len(matches)
		}
		return tag.ReplaceAllLiteralString(text, replacement), len(matches)
	}

	loc := tag.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, 0
	}

	var repl []byte
	if expand {
		repl = tag.ExpandString(nil, replacement, text, loc)
	} else {
		repl = []byte(replacement)
	}
	return text[:loc[0]] + string(repl) + text[loc[1]:], 1
}
