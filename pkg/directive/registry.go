// Package directive knows the T4 directives: their names, their attributes and the
// values those attributes accept. It validates the directives of a parsed tree
// and attaches the results to the tree's annotation table.
package directive

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// AttributeInfo describes one attribute a directive accepts.
type AttributeInfo struct {
	Name     string
	Grammar  ValueGrammar
	Required bool
}

// Info describes a known directive.
type Info struct {
	Name       string
	Attributes []AttributeInfo
	// Unique directives are honoured only once per template.
	Unique bool
}

// Attribute looks up an attribute by name, ignoring case.
func (i *Info) Attribute(name string) (*AttributeInfo, bool) {
	for idx := range i.Attributes {
		if strings.EqualFold(i.Attributes[idx].Name, name) {
			return &i.Attributes[idx], true
		}
	}
	return nil, false
}

// RequiredAttributes returns the attributes that must be present.
func (i *Info) RequiredAttributes() []AttributeInfo {
	var out []AttributeInfo
	for _, a := range i.Attributes {
		if a.Required {
			out = append(out, a)
		}
	}
	return out
}

// Registry is the static table of known directives. It is built once and then
// only read.
type Registry struct {
	directives map[string]*Info
}

func NewRegistry(infos ...*Info) *Registry {
	r := &Registry{directives: map[string]*Info{}}
	for _, info := range infos {
		r.directives[strings.ToLower(info.Name)] = info
	}
	return r
}

// Lookup finds a directive by name, ignoring case.
func (r *Registry) Lookup(name string) (*Info, bool) {
	info, ok := r.directives[strings.ToLower(name)]
	return info, ok
}

// Names returns the known directive names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.directives))
	for _, info := range r.directives {
		out = append(out, info.Name)
	}
	sort.Strings(out)
	return out
}

// Extend returns a copy of the registry with infos added. An info whose name is
// already known replaces the existing entry.
func (r *Registry) Extend(infos ...*Info) (*Registry, error) {
	out := &Registry{directives: make(map[string]*Info, len(r.directives)+len(infos))}
	for k, v := range r.directives {
		out.directives[k] = v
	}
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			return nil, errors.Errorf("directive definition has no name")
		}
		seen := map[string]bool{}
		for _, a := range info.Attributes {
			key := strings.ToLower(a.Name)
			if key == "" {
				return nil, errors.Errorf("directive %s: attribute definition has no name", info.Name)
			}
			if seen[key] {
				return nil, errors.Errorf("directive %s: attribute %s defined twice", info.Name, a.Name)
			}
			if a.Grammar == nil {
				return nil, errors.Errorf("directive %s: attribute %s has no value grammar", info.Name, a.Name)
			}
			seen[key] = true
		}
		out.directives[strings.ToLower(info.Name)] = info
	}
	return out, nil
}

// DefaultRegistry returns the directives understood by the Visual Studio text
// templating engine.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&Info{
			Name:   "template",
			Unique: true,
			Attributes: []AttributeInfo{
				{Name: "language", Grammar: Enum("C#", "VB", "C#v3.5", "VBv3.5")},
				{Name: "debug", Grammar: Boolean()},
				{Name: "hostspecific", Grammar: Enum("true", "false", "trueFromBase")},
				{Name: "inherits", Grammar: TypeName()},
				{Name: "culture", Grammar: Culture()},
				{Name: "compilerOptions", Grammar: Any()},
				{Name: "linePragmas", Grammar: Boolean()},
				{Name: "visibility", Grammar: Enum("public", "internal")},
			},
		},
		&Info{
			Name: "parameter",
			Attributes: []AttributeInfo{
				{Name: "type", Grammar: TypeName(), Required: true},
				{Name: "name", Grammar: Identifier(), Required: true},
			},
		},
		&Info{
			Name:   "output",
			Unique: true,
			Attributes: []AttributeInfo{
				{Name: "extension", Grammar: Any()},
				{Name: "encoding", Grammar: Encoding()},
			},
		},
		&Info{
			Name: "assembly",
			Attributes: []AttributeInfo{
				{Name: "name", Grammar: NonEmpty(), Required: true},
			},
		},
		&Info{
			Name: "import",
			Attributes: []AttributeInfo{
				{Name: "namespace", Grammar: Namespace(), Required: true},
			},
		},
		&Info{
			Name: "include",
			Attributes: []AttributeInfo{
				{Name: "file", Grammar: NonEmpty(), Required: true},
				{Name: "once", Grammar: Boolean()},
			},
		},
	)
}

// GrammarByName maps the names used in configuration files to value grammars.
// Enumerations are built with Enum instead.
func GrammarByName(name string) (ValueGrammar, bool) {
	switch strings.ToLower(name) {
	case "", "any", "string":
		return Any(), true
	case "nonempty", "non-empty":
		return NonEmpty(), true
	case "bool", "boolean":
		return Boolean(), true
	case "identifier":
		return Identifier(), true
	case "namespace":
		return Namespace(), true
	case "type", "typename":
		return TypeName(), true
	case "culture":
		return Culture(), true
	case "encoding":
		return Encoding(), true
	}
	return nil, false
}
