// Package environment describes the host a template is edited in: the target
// framework, the text templating assemblies and the include folders. The core
// never discovers any of this itself; the host builds an Environment and passes
// it in.
package environment

import (
	"fmt"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrUnsupportedEnvironment is returned for hosts whose templating engine is not
// supported. It disables the whole feature set rather than degrading per file.
var ErrUnsupportedEnvironment = errors.Base("unsupported environment")

// Environment contains environment-dependent information.
type Environment struct {
	HostVersion      int
	FrameworkVersion string
	AssemblyNames    []string
	IncludePaths     []string
}

func textTemplatingAssembly(name string, major int) string {
	return fmt.Sprintf("Microsoft.VisualStudio.TextTemplating.%s%d.0, Version=%d.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a", name, major, major)
}

// ForHostVersion returns the environment of a Visual Studio major version.
func ForHostVersion(major int) (*Environment, error) {
	switch major {
	case 10:
		return &Environment{
			HostVersion:      10,
			FrameworkVersion: "4.0",
			AssemblyNames: []string{
				textTemplatingAssembly("", 10),
				textTemplatingAssembly("Interfaces.", 10),
			},
		}, nil
	case 11:
		return &Environment{
			HostVersion:      11,
			FrameworkVersion: "4.5",
			AssemblyNames: []string{
				textTemplatingAssembly("", 11),
				textTemplatingAssembly("Interfaces.", 11),
				textTemplatingAssembly("Interfaces.", 10),
			},
		}, nil
	}
	return nil, errors.Errorf("host version %d: %w", major, ErrUnsupportedEnvironment)
}

// FilterIncludePaths keeps the paths that are non-empty and absolute, in order,
// without duplicates.
func FilterIncludePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := map[string]bool{}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
