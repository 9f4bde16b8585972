package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/environment"
)

func TestForHostVersion(t *testing.T) {
	tests := []struct {
		name       string
		major      int
		framework  string
		assemblies int
		wantErr    bool
	}{
		{"vs2010", 10, "4.0", 2, false},
		{"vs2012", 11, "4.5", 3, false},
		{"vs2008", 9, "", 0, true},
		{"unknown", 17, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := environment.ForHostVersion(tt.major)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, environment.ErrUnsupportedEnvironment))
				assert.Nil(t, env)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.major, env.HostVersion)
			assert.Equal(t, tt.framework, env.FrameworkVersion)
			assert.Len(t, env.AssemblyNames, tt.assemblies)
		})
	}
}

func TestAssemblyNames(t *testing.T) {
	env, err := environment.ForHostVersion(11)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Microsoft.VisualStudio.TextTemplating.11.0, Version=11.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a",
		"Microsoft.VisualStudio.TextTemplating.Interfaces.11.0, Version=11.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a",
		"Microsoft.VisualStudio.TextTemplating.Interfaces.10.0, Version=10.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a",
	}, env.AssemblyNames)
}

func TestFilterIncludePaths(t *testing.T) {
	got := environment.FilterIncludePaths([]string{
		"",
		"  ",
		"relative/dir",
		"/abs/include",
		"/abs/include/",
		"/other/../abs/include",
		"/second",
	})
	assert.Equal(t, []string{"/abs/include", "/second"}, got)
	assert.Empty(t, environment.FilterIncludePaths(nil))
}
