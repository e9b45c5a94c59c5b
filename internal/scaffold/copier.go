// Package scaffold materializes template trees into a destination directory.
package scaffold

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tacogips/stackforge/internal/debug"
	"github.com/tacogips/stackforge/internal/render"
)

var log = debug.For("scaffold")

// Options configures a Copier.
type Options struct {
	// TemplatesDir holds one directory per template name.
	TemplatesDir string

	// DestDir is the root the tree is copied into.
	DestDir string

	// IgnorePatterns are glob patterns of template entries to skip.
	IgnorePatterns []string

	// BinaryExtensions overrides the extensions copied byte for byte.
	BinaryExtensions []string

	// DryRun reports what would be written without touching the destination.
	DryRun bool

	// Out receives one line per entry ("created: x", "exists: y").
	Out io.Writer
}

// Result contains copy statistics.
type Result struct {
	// Created lists files written.
	Created []string

	// Directories lists directories created.
	Directories []string

	// Skipped lists destination entries that already existed.
	Skipped []string
}

// Copier copies template trees. Existing destination files are never
// overwritten, so repeated runs keep user edits.
type Copier struct {
	opts      Options
	renderer  *render.Renderer
	processor *Processor
	writer    Writer
}

// NewCopier creates a Copier.
func NewCopier(opts Options) *Copier {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.DestDir == "" {
		opts.DestDir = "."
	}
	r := render.New()
	return &Copier{
		opts:      opts,
		renderer:  r,
		processor: NewProcessor(r, opts.BinaryExtensions),
		writer:    NewFileWriter(),
	}
}

// TemplateRoot returns the directory of the named template.
func (c *Copier) TemplateRoot(name string) string {
	return filepath.Join(c.opts.TemplatesDir, name)
}

// CopyTree copies the template called name into the destination directory,
// rendering names and text content with data. Paths containing any entry of
// verbatim as a substring are copied unchanged.
func (c *Copier) CopyTree(ctx context.Context, name string, data render.Context, verbatim []string) (*Result, error) {
	root := c.TemplateRoot(name)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, newScaffoldError(TemplateNotFound, fmt.Sprintf("template %q not found", name), root, err)
	}

	log.Debugf("copying template %s -> %s (dryRun=%v)", root, c.opts.DestDir, c.opts.DryRun)
	result := &Result{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if shouldIgnore(rel, c.opts.IgnorePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		destRel, err := DestinationPath(c.renderer, rel, data)
		if err != nil {
			return err
		}
		dest := filepath.Join(c.opts.DestDir, destRel)

		switch {
		case d.IsDir():
			return c.copyDir(dest, result)
		case d.Type().IsRegular():
			return c.copyFile(path, rel, dest, data, verbatim, result)
		default:
			log.Debugf("skipping non-regular entry: %s", rel)
			return nil
		}
	})
	if err != nil {
		return result, err
	}

	log.Debugf("copy complete: created=%d dirs=%d skipped=%d",
		len(result.Created), len(result.Directories), len(result.Skipped))
	return result, nil
}

func (c *Copier) copyDir(dest string, result *Result) error {
	if c.writer.Exists(dest) {
		fmt.Fprintf(c.opts.Out, "exists: %s\n", dest)
		return nil
	}
	result.Directories = append(result.Directories, dest)
	fmt.Fprintf(c.opts.Out, "created: %s/\n", dest)
	if c.opts.DryRun {
		return nil
	}
	return c.writer.CreateDir(dest)
}

func (c *Copier) copyFile(src, rel, dest string, data render.Context, verbatim []string, result *Result) error {
	if c.writer.Exists(dest) {
		result.Skipped = append(result.Skipped, dest)
		fmt.Fprintf(c.opts.Out, "exists: %s\n", dest)
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return newScaffoldError(WriteFailed, "failed to stat template file", src, err)
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return newScaffoldError(WriteFailed, "failed to read template file", src, err)
	}

	processed, err := c.processor.Process(filepath.ToSlash(rel), content, data, verbatim)
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info.Mode()&0111 != 0 && strings.Contains(filepath.Base(dest), ".sh") {
		mode = 0755
	}

	result.Created = append(result.Created, dest)
	fmt.Fprintf(c.opts.Out, "created: %s\n", dest)
	if c.opts.DryRun {
		return nil
	}
	return c.writer.WriteFile(dest, processed, mode)
}
