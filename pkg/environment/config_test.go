package environment_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/environment"
)

const sampleConfig = `
host_version     = 10
assembly_names   = ["System.Core"]
include_paths    = ["/opt/include", "relative", "/opt/include"]

directive "CleanupBehavior" {
  unique = true

  attribute "processor" {
    values   = ["T4VSHost"]
    required = true
  }

  attribute "CleanupAfterProcessingTemplate" {
    type = "bool"
  }
}
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/"+environment.DefaultConfigFile, []byte(sampleConfig), 0o644))

	cfg, err := environment.Load(fs, "/work/"+environment.DefaultConfigFile)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.HostVersion)
	require.Len(t, cfg.Directives, 1)
	assert.Equal(t, "CleanupBehavior", cfg.Directives[0].Name)
	assert.True(t, cfg.Directives[0].Unique)
	require.Len(t, cfg.Directives[0].Attributes, 2)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, "4.0", env.FrameworkVersion)
	assert.Len(t, env.AssemblyNames, 3)
	assert.Contains(t, env.AssemblyNames, "System.Core")
	assert.Equal(t, []string{"/opt/include"}, env.IncludePaths)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	info, ok := reg.Lookup("cleanupbehavior")
	require.True(t, ok)
	assert.True(t, info.Unique)

	attr, ok := info.Attribute("processor")
	require.True(t, ok)
	assert.True(t, attr.Required)
	_, valid := attr.Grammar.Check("t4vshost")
	assert.True(t, valid)

	_, ok = reg.Lookup("template")
	assert.True(t, ok, "defaults are kept")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	reg, env, err := environment.Resolve(ctx, afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"assembly", "import", "include", "output", "parameter", "template"}, reg.Names())
	assert.Empty(t, env.IncludePaths)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, environment.DefaultConfigFile, []byte(sampleConfig), 0o644))
	reg, env, err = environment.Resolve(ctx, fs, "")
	require.NoError(t, err)
	_, ok := reg.Lookup("cleanupbehavior")
	assert.True(t, ok)
	assert.Equal(t, []string{"/opt/include"}, env.IncludePaths)

	_, _, err = environment.Resolve(ctx, afero.NewMemMapFs(), "/missing.hcl")
	require.ErrorContains(t, err, "loading config")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := environment.Load(afero.NewMemMapFs(), "/nope.hcl")
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []string
	}{
		{
			name:   "syntax_error",
			input: `host_version = `,
			want:  []string{"parsing HCL"},
		},
		{
			name:   "unknown_field",
			input: `frobnicate = true`,
			want:  []string{"decoding HCL"},
		},
		{
			name: "validation_errors_are_collected",
			input: `
directive "a" {
  attribute "x" { type = "nonsense" }
  attribute "X" { type = "bool" }
  attribute "y" {
    type   = "bool"
    values = ["1"]
  }
}
directive "A" {}
`,
			want: []string{
				`attribute x has unknown type "nonsense"`,
				"attribute X is defined twice",
				"attribute y sets both type and values",
				"directive A is defined twice",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := environment.Parse([]byte(tt.input), "test.hcl")
			require.Error(t, err)
			for _, want := range tt.want {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfigEnvironmentWithoutHost(t *testing.T) {
	cfg, err := environment.Parse([]byte(`framework_version = "4.7.2"`), "x.hcl")
	require.NoError(t, err)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, 0, env.HostVersion)
	assert.Equal(t, "4.7.2", env.FrameworkVersion)
	assert.Empty(t, env.AssemblyNames)
}

func TestConfigUnsupportedHost(t *testing.T) {
	cfg, err := environment.Parse([]byte(`host_version = 8`), "x.hcl")
	require.NoError(t, err)

	_, err = cfg.Environment()
	require.Error(t, err)
	assert.True(t, errors.Is(err, environment.ErrUnsupportedEnvironment))
}
