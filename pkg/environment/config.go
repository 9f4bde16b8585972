package environment

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/t4ls/pkg/directive"
)

// DefaultConfigFile is looked up in the working directory by the CLI.
const DefaultConfigFile = ".t4ls.hcl"

// Config is the file form of an Environment plus extra directive definitions.
//
//	host_version  = 11
//	include_paths = ["/opt/templates/include"]
//
//	directive "CleanupBehavior" {
//	  attribute "name" {
//	    values   = ["CleanupAfterProcessingtemplate"]
//	    required = true
//	  }
//	}
type Config struct {
	HostVersion      int               `hcl:"host_version,optional"`
	FrameworkVersion string            `hcl:"framework_version,optional"`
	AssemblyNames    []string          `hcl:"assembly_names,optional"`
	IncludePaths     []string          `hcl:"include_paths,optional"`
	Directives       []*DirectiveBlock `hcl:"directive,block"`
}

type DirectiveBlock struct {
	Name       string            `hcl:"name,label"`
	Unique     bool              `hcl:"unique,optional"`
	Attributes []*AttributeBlock `hcl:"attribute,block"`
}

type AttributeBlock struct {
	Name     string   `hcl:"name,label"`
	Type     string   `hcl:"type,optional"`
	Values   []string `hcl:"values,optional"`
	Required bool     `hcl:"required,optional"`
}

// Resolve returns the registry and environment described by the config file at
// path. With an empty path DefaultConfigFile is used when it exists, otherwise
// the default registry and an empty environment.
func Resolve(ctx context.Context, fs afero.Fs, path string) (*directive.Registry, *Environment, error) {
	if path == "" {
		if ok, _ := afero.Exists(fs, DefaultConfigFile); !ok {
			return directive.DefaultRegistry(), &Environment{}, nil
		}
		path = DefaultConfigFile
	}

	cfg, err := Load(fs, path)
	if err != nil {
		return nil, nil, errors.Errorf("loading config: %w", err)
	}

	env, err := cfg.Environment()
	if err != nil {
		return nil, nil, errors.Errorf("loading config: %w", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, nil, errors.Errorf("loading config: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("directives", len(reg.Names())).Msg("loaded config")

	return reg, env, nil
}

// Load reads and validates an HCL config file.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes an HCL config from memory. filename is only used in messages.
func Parse(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, ctx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid config %s: %w", filename, err)
	}

	return &cfg, nil
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error
	seen := map[string]bool{}
	for _, d := range c.Directives {
		key := strings.ToLower(d.Name)
		if strings.TrimSpace(d.Name) == "" {
			err = multierr.Append(err, errors.Errorf("directive block has an empty name"))
			continue
		}
		if seen[key] {
			err = multierr.Append(err, errors.Errorf("directive %s is defined twice", d.Name))
		}
		seen[key] = true

		attrs := map[string]bool{}
		for _, a := range d.Attributes {
			akey := strings.ToLower(a.Name)
			if attrs[akey] {
				err = multierr.Append(err, errors.Errorf("directive %s: attribute %s is defined twice", d.Name, a.Name))
			}
			attrs[akey] = true
			if len(a.Values) > 0 && a.Type != "" {
				err = multierr.Append(err, errors.Errorf("directive %s: attribute %s sets both type and values", d.Name, a.Name))
				continue
			}
			if _, ok := directive.GrammarByName(a.Type); !ok && len(a.Values) == 0 {
				err = multierr.Append(err, errors.Errorf("directive %s: attribute %s has unknown type %q", d.Name, a.Name, a.Type))
			}
		}
	}
	return err
}

// Environment builds the environment described by the config. A host_version
// selects the defaults of that host; the other fields override or extend them.
func (c *Config) Environment() (*Environment, error) {
	env := &Environment{}
	if c.HostVersion != 0 {
		base, err := ForHostVersion(c.HostVersion)
		if err != nil {
			return nil, err
		}
		env = base
	}
	if c.FrameworkVersion != "" {
		env.FrameworkVersion = c.FrameworkVersion
	}
	for _, name := range c.AssemblyNames {
		if !contains(env.AssemblyNames, name) {
			env.AssemblyNames = append(env.AssemblyNames, name)
		}
	}
	env.IncludePaths = FilterIncludePaths(append(env.IncludePaths, c.IncludePaths...))
	return env, nil
}

// Registry returns the default directive registry extended with the config's
// directive blocks.
func (c *Config) Registry() (*directive.Registry, error) {
	infos := make([]*directive.Info, 0, len(c.Directives))
	for _, d := range c.Directives {
		info := &directive.Info{Name: d.Name, Unique: d.Unique}
		for _, a := range d.Attributes {
			grammar, ok := directive.GrammarByName(a.Type)
			if len(a.Values) > 0 {
				grammar, ok = directive.Enum(a.Values...), true
			}
			if !ok {
				return nil, errors.Errorf("directive %s: attribute %s has unknown type %q", d.Name, a.Name, a.Type)
			}
			info.Attributes = append(info.Attributes, directive.AttributeInfo{
				Name:     a.Name,
				Grammar:  grammar,
				Required: a.Required,
			})
		}
		infos = append(infos, info)
	}

	reg, err := directive.DefaultRegistry().Extend(infos...)
	if err != nil {
		return nil, errors.Errorf("extending directive registry: %w", err)
	}
	return reg, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
