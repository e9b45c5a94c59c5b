package scaffold

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tacogips/stackforge/internal/render"
)

// DestinationPath renders a slash separated template path into the
// destination-relative path. Each component is rendered on its own so a
// variable cannot introduce a separator or a parent reference.
func DestinationPath(r *render.Renderer, relPath string, data render.Context) (string, error) {
	components := strings.Split(filepath.ToSlash(relPath), "/")
	processed := make([]string, 0, len(components))

	for _, component := range components {
		if component == "" {
			continue
		}

		rendered, err := r.RenderPath(component, data)
		if err != nil {
			return "", newScaffoldError(PathError, "failed to render path", relPath, err)
		}
		if err := validateComponent(rendered, component); err != nil {
			return "", newScaffoldError(PathError, err.Error(), relPath, nil)
		}
		processed = append(processed, rendered)
	}

	result := strings.Join(processed, "/")
	cleaned := filepath.Clean(filepath.FromSlash(result))
	if filepath.IsAbs(cleaned) || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", newScaffoldError(PathError, fmt.Sprintf("rendered path %q escapes the destination", result), relPath, nil)
	}
	return cleaned, nil
}

// validateComponent validates a single rendered path component.
func validateComponent(rendered, original string) error {
	if rendered == ".." || (strings.Contains(rendered, "..") && !strings.Contains(original, "..")) {
		return fmt.Errorf("path component %q contains a parent reference after rendering (original: %q)", rendered, original)
	}
	if strings.ContainsAny(rendered, "/\\") {
		return fmt.Errorf("path component %q contains a path separator after rendering (original: %q)", rendered, original)
	}
	if strings.TrimSpace(rendered) == "" {
		return fmt.Errorf("path component %q is empty after rendering", original)
	}
	return nil
}
