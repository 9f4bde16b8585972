package tokens

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensText(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.tt", []byte(`<#@ template debug="true" #>`), 0o644))

	me := &Handler{fs: fs}
	out, err := me.Run(context.Background(), "/a.tt")
	require.NoError(t, err)

	assert.Equal(t, ""+
		"1:1\tdelimiter\t\"<#@\"\n"+
		"1:5\tkeyword\t\"template\"\n"+
		"1:14\tproperty\t\"debug\"\n"+
		"1:19\toperator\t\"=\"\n"+
		"1:20\tstring\t\"\\\"\"\n"+
		"1:21\tstring\t\"true\"\n"+
		"1:25\tstring\t\"\\\"\"\n"+
		"1:27\tdelimiter\t\"#>\"\n",
		string(out))
}

func TestTokensMarkInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		config string
		input  string
		want   string
	}{
		{
			name:  "invalid_boolean",
			input: `<#@ template debug="maybe" #>`,
			want:  "1:21\tstring[invalid]\t\"maybe\"\n",
		},
		{
			name:  "valid_boolean",
			input: `<#@ template debug="true" #>`,
			want:  "1:21\tstring\t\"true\"\n",
		},
		{
			name: "configured_directive",
			config: `
directive "CleanupBehavior" {
  attribute "processor" {
    values = ["T4VSHost"]
  }
}
`,
			input: `<#@ CleanupBehavior processor="other" #>`,
			want:  "1:32\tstring[invalid]\t\"other\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/a.tt", []byte(tt.input), 0o644))

			me := &Handler{fs: fs}
			if tt.config != "" {
				require.NoError(t, afero.WriteFile(fs, "/t4ls.hcl", []byte(tt.config), 0o644))
				me.configPath = "/t4ls.hcl"
			}

			out, err := me.Run(context.Background(), "/a.tt")
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.want)
		})
	}
}

func TestTokensLSP(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.tt", []byte("<# x #>"), 0o644))

	me := &Handler{fs: fs, lsp: true}
	out, err := me.Run(context.Background(), "/a.tt")
	require.NoError(t, err)

	var got struct {
		Legend struct {
			TokenTypes     []string `json:"tokenTypes"`
			TokenModifiers []string `json:"tokenModifiers"`
		} `json:"legend"`
		Data []uint32 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Contains(t, got.Legend.TokenTypes, "delimiter")
	assert.Equal(t, []uint32{
		0, 0, 2, 0, 0,
		0, 2, 3, 5, 0,
		0, 3, 2, 0, 0,
	}, got.Data)
}

func TestTokensMissingFile(t *testing.T) {
	me := &Handler{fs: afero.NewMemMapFs()}
	_, err := me.Run(context.Background(), "/nope.tt")
	require.Error(t, err)
}
