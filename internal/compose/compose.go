// Package compose edits docker-compose files in place while keeping key order
// and comments.
package compose

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/stackforge/internal/debug"
)

var log = debug.For("compose")

// ErrServiceNotFound is returned when a service is not defined in the file.
var ErrServiceNotFound = errors.New("service not found")

// File is a loaded compose document.
type File struct {
	path string
	mode os.FileMode
	doc  yaml.Node
}

// Load parses the compose file at path.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat compose file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	f.mode = info.Mode().Perm()
	return f, nil
}

// Parse parses compose YAML that is not backed by a file.
func Parse(data []byte) (*File, error) {
	f := &File{mode: 0644}
	if err := yaml.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("invalid compose YAML: %w", err)
	}
	if f.doc.Kind == 0 {
		f.doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if f.root().Kind != yaml.MappingNode {
		return nil, errors.New("invalid compose YAML: top level is not a mapping")
	}
	return f, nil
}

func (f *File) root() *yaml.Node {
	return f.doc.Content[0]
}

// Services returns the service names in file order.
func (f *File) Services() []string {
	services := lookup(f.root(), "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}
	names := make([]string, 0, len(services.Content)/2)
	for i := 0; i+1 < len(services.Content); i += 2 {
		names = append(names, services.Content[i].Value)
	}
	return names
}

func (f *File) service(name string) (*yaml.Node, error) {
	services := lookup(f.root(), "services")
	if services == nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	svc := lookup(services, name)
	if svc == nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if svc.Kind != yaml.MappingNode {
		// `web:` with no body parses as a null scalar.
		*svc = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	return svc, nil
}

// SetPorts replaces the port list of a service.
func (f *File) SetPorts(service string, ports []string) error {
	svc, err := f.service(service)
	if err != nil {
		return err
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, p := range ports {
		// Quoted so "80:80" is never read as a base-60 number.
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p, Style: yaml.DoubleQuotedStyle})
	}
	set(svc, "ports", seq)
	log.Debugf("set ports of %s to %v", service, ports)
	return nil
}

// Ports returns the port list of a service.
func (f *File) Ports(service string) ([]string, error) {
	return f.list(service, "ports")
}

// Volumes returns the volume list of a service.
func (f *File) Volumes(service string) ([]string, error) {
	return f.list(service, "volumes")
}

func (f *File) list(service, key string) ([]string, error) {
	svc, err := f.service(service)
	if err != nil {
		return nil, err
	}
	seq := lookup(svc, key)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil, nil
	}
	out := make([]string, 0, len(seq.Content))
	for _, n := range seq.Content {
		out = append(out, n.Value)
	}
	return out, nil
}

// AddVolume appends volume to a service unless it is already listed.
func (f *File) AddVolume(service, volume string) error {
	svc, err := f.service(service)
	if err != nil {
		return err
	}
	seq := lookup(svc, "volumes")
	if seq == nil || seq.Kind != yaml.SequenceNode {
		seq = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		set(svc, "volumes", seq)
	}
	for _, n := range seq.Content {
		if n.Value == volume {
			log.Debugf("volume %s already on %s", volume, service)
			return nil
		}
	}
	seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: volume})
	return nil
}

// RemoveService deletes a service. Removing an absent service is a no-op.
func (f *File) RemoveService(name string) {
	services := lookup(f.root(), "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(services.Content); i += 2 {
		if services.Content[i].Value == name {
			services.Content = append(services.Content[:i], services.Content[i+2:]...)
			log.Debugf("removed service %s", name)
			return
		}
	}
}

// Bytes encodes the document with two-space indentation.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f.doc); err != nil {
		return nil, fmt.Errorf("failed to encode compose YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode compose YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document back to the file it was loaded from.
func (f *File) Save() error {
	if f.path == "" {
		return errors.New("compose document has no backing file")
	}
	return f.SaveAs(f.path)
}

// SaveAs writes the document to path.
func (f *File) SaveAs(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, f.mode); err != nil {
		return fmt.Errorf("failed to write compose file: %w", err)
	}
	return nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func set(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}
