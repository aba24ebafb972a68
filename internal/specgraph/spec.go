// Package specgraph implements AGENTESE's JIT / SpecGraph pipeline:
// parse a spec file into a polynomial/operad/aspect model, compile it
// into a node implementation, promote it once it proves itself, and
// reflect/audit drift between spec and implementation trees.
package specgraph

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Polynomial is the position/direction pair a spec declares for its
// underlying data shape, following the polynomial functor model.
type Polynomial struct {
	Positions  []string `yaml:"positions"`
	Directions []string `yaml:"directions"`
}

// OperadLaw names one algebraic law an operad must satisfy.
type OperadLaw string

const (
	LawIdentity      OperadLaw = "identity"
	LawAssociativity OperadLaw = "associativity"
)

// Operad declares the operations and laws a node's composition must honor.
type Operad struct {
	Operations []string    `yaml:"operations"`
	Laws       []OperadLaw `yaml:"laws"`
}

// AspectSpec describes one aspect's category and declared effects, parsed
// from frontmatter.
type AspectSpec struct {
	Name    string   `yaml:"name"`
	Category string  `yaml:"category"`
	Effects []string `yaml:"effects"`
}

// ServiceSpec declares a node's dependency names.
type ServiceSpec struct {
	Dependencies []string `yaml:"dependencies"`
}

// frontmatter is the raw YAML shape a spec file's frontmatter block
// unmarshals into.
type frontmatter struct {
	Path       string       `yaml:"path"`
	Polynomial *Polynomial  `yaml:"polynomial"`
	Operad     *Operad      `yaml:"operad"`
	Aspects    []AspectSpec `yaml:"aspects"`
	Service    *ServiceSpec `yaml:"service"`
}

// ParsedSpec is the result of parsing a spec file's text+frontmatter.
// Missing sections are legal; LayerCount reflects how many of the five
// top-level sections (path, polynomial, operad, aspects, service) were
// present, for diagnostics.
type ParsedSpec struct {
	Path       string
	Polynomial *Polynomial
	Operad     *Operad
	Aspects    []AspectSpec
	Service    *ServiceSpec
	Body       string
	LayerCount int
}

// ParseSpec reads a spec file's raw text. Frontmatter is delimited by a
// leading and trailing `---` line, YAML in between; everything after the
// closing delimiter is the body (prose/examples).
func ParseSpec(raw string) (*ParsedSpec, error) {
	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, err
	}

	ps := &ParsedSpec{Path: fm.Path, Polynomial: fm.Polynomial, Operad: fm.Operad, Aspects: fm.Aspects, Service: fm.Service, Body: body}
	if ps.Path != "" {
		ps.LayerCount++
	}
	if ps.Polynomial != nil {
		ps.LayerCount++
	}
	if ps.Operad != nil {
		ps.LayerCount++
	}
	if len(ps.Aspects) > 0 {
		ps.LayerCount++
	}
	if ps.Service != nil {
		ps.LayerCount++
	}
	return ps, nil
}

func splitFrontmatter(raw string) (frontmatter, string, error) {
	var fm frontmatter
	trimmed := strings.TrimLeft(raw, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return fm, raw, nil
	}

	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return fm, raw, nil
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(rest[idx+4:], "\n")

	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return fm, raw, err
	}
	return fm, body, nil
}
