package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/stackforge/internal/render"
)

// specFile is the on-disk form of a patch list.
type specFile struct {
	Patches []specEntry `yaml:"patches"`
}

type specEntry struct {
	File     string         `yaml:"file"`
	Tag      string         `yaml:"tag"`
	Literal  bool           `yaml:"literal"`
	Replace  *string        `yaml:"replace"`
	Template string         `yaml:"template"`
	Data     map[string]any `yaml:"data"`
	Log      string         `yaml:"log"`
	Silent   bool           `yaml:"silent"`
	All      bool           `yaml:"all"`
	Expand   bool           `yaml:"expand"`
}

// LoadSpecs reads a YAML patch list:
//
//	patches:
//	  - file: docker-compose.yml
//	    tag: '"80:80"'
//	    literal: true
//	    replace: '"8080:80"'
//
// Relative file and template paths resolve against the directory of path.
// extra is layered over each entry's data.
func LoadSpecs(path string, extra render.Context) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}

	var sf specFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("invalid patch file %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	specs := make([]Spec, 0, len(sf.Patches))
	for i, entry := range sf.Patches {
		spec, err := entry.toSpec(baseDir, extra)
		if err != nil {
			return nil, fmt.Errorf("patch #%d in %s: %w", i+1, path, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (e specEntry) toSpec(baseDir string, extra render.Context) (Spec, error) {
	if e.Tag == "" {
		return Spec{}, fmt.Errorf("tag is required")
	}
	if e.Replace != nil && e.Template != "" {
		return Spec{}, fmt.Errorf("replace and template are mutually exclusive")
	}
	if e.Replace == nil && e.Template == "" {
		return Spec{}, fmt.Errorf("one of replace or template is required")
	}

	pattern := e.Tag
	if e.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	tag, err := regexp.Compile(pattern)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid tag pattern: %w", err)
	}

	spec := Spec{
		File:   resolve(baseDir, e.File),
		Tag:    tag,
		Log:    e.Log,
		Silent: e.Silent,
		All:    e.All,
		Expand: e.Expand,
		Data:   render.Context(e.Data).Merge(extra),
	}
	if e.Replace != nil {
		spec.Replace = *e.Replace
	} else {
		spec.Template = resolve(baseDir, e.Template)
	}
	return spec, spec.Validate()
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
