package ratelimit

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy names used by the HTTP modules
const (
	PolicyApply     = "apply"
	PolicyContact   = "contact"
	PolicyCSRFIssue = "csrf-issue"
)

//go:embed policies.yaml
var defaultPolicies []byte

// Policy is a limit of Limit events per Window
type Policy struct {
	Name   string        `yaml:"name"`
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Key namespaces a client identifier under the policy
func (p Policy) Key(client string) string { return p.Name + ":" + client }

// Registry is an immutable set of policies
type Registry struct{ byName map[string]Policy }

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

// DefaultRegistry returns the built in policies
func DefaultRegistry() *Registry {
	r, err := LoadRegistry(bytes.NewReader(defaultPolicies))
	if err != nil {
		panic(fmt.Sprintf("ratelimit: embedded policies: %v", err))
	}
	return r
}

// LoadRegistryFile reads policies from a YAML file
// built in policies the file does not name are kept
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	override, err := LoadRegistry(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultRegistry().merge(override), nil
}

// LoadRegistry decodes and validates a policy document
func LoadRegistry(r io.Reader) (*Registry, error) {
	var doc policyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode policies: %w", err)
	}

	reg := &Registry{byName: make(map[string]Policy, len(doc.Policies))}
	for i, p := range doc.Policies {
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("policy %d: name is required", i)
		case p.Limit <= 0:
			return nil, fmt.Errorf("policy %q: limit must be positive", p.Name)
		case p.Window <= 0:
			return nil, fmt.Errorf("policy %q: window must be positive", p.Name)
		}
		if _, dup := reg.byName[p.Name]; dup {
			return nil, fmt.Errorf("policy %q defined twice", p.Name)
		}
		reg.byName[p.Name] = p
	}
	return reg, nil
}

func (r *Registry) merge(o *Registry) *Registry {
	out := &Registry{byName: make(map[string]Policy, len(r.byName)+len(o.byName))}
	for k, v := range r.byName {
		out.byName[k] = v
	}
	for k, v := range o.byName {
		out.byName[k] = v
	}
	return out
}

// Get looks up a policy by name
func (r *Registry) Get(name string) (Policy, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Names lists policy names in order
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for k := range r.byName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
