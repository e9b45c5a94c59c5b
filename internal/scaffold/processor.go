package scaffold

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/tacogips/stackforge/internal/render"
)

// Processor turns template file content into destination content.
type Processor struct {
	renderer         *render.Renderer
	binaryExtensions []string
}

// NewProcessor creates a Processor. A nil binaryExtensions uses the defaults.
func NewProcessor(r *render.Renderer, binaryExtensions []string) *Processor {
	if binaryExtensions == nil {
		binaryExtensions = DefaultBinaryExtensions()
	}
	return &Processor{
		renderer:         r,
		binaryExtensions: binaryExtensions,
	}
}

// DefaultBinaryExtensions returns the extensions copied byte for byte.
func DefaultBinaryExtensions() []string {
	return []string{
		// Images
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".svg", ".webp",
		// Archives
		".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".rar", ".7z", ".jar",
		// Executables
		".exe", ".dll", ".so", ".dylib", ".bin",
		// Media
		".mp3", ".mp4", ".avi", ".mov", ".wav",
		// Documents
		".pdf", ".doc", ".docx", ".xls", ".xlsx",
		// Fonts
		".ttf", ".otf", ".woff", ".woff2", ".eot",
	}
}

// ShouldRender reports whether a file is rendered as a template. It returns
// false when the name has a binary extension, when any verbatim entry is a
// substring of the path, or when the content holds a null byte.
func (p *Processor) ShouldRender(path string, content []byte, verbatim []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, binaryExt := range p.binaryExtensions {
		if ext == binaryExt {
			return false
		}
	}

	for _, v := range verbatim {
		if v != "" && strings.Contains(path, v) {
			return false
		}
	}

	return !isBinaryContent(content)
}

// isBinaryContent checks the first 512 bytes for a null byte.
func isBinaryContent(content []byte) bool {
	checkLen := len(content)
	if checkLen > 512 {
		checkLen = 512
	}
	return bytes.IndexByte(content[:checkLen], 0) != -1
}

// Process returns the destination content for one template file.
func (p *Processor) Process(path string, content []byte, data render.Context, verbatim []string) ([]byte, error) {
	if !p.ShouldRender(path, content, verbatim) {
		log.Debugf("copying verbatim: %s (%d bytes)", path, len(content))
		return content, nil
	}

	out, err := p.renderer.Render(string(content), data)
	if err != nil {
		return nil, newScaffoldError(RenderFailed, "failed to render template", path, err)
	}
	return []byte(out), nil
}
