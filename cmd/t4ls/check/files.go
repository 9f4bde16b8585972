package check

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultPattern matches every template and include file below the working
// directory.
const DefaultPattern = "**/*.{tt,t4,ttinclude}"

// ExpandPatterns resolves glob patterns against fs. Relative patterns are
// matched from the working directory of fs, absolute ones from their literal
// prefix. The result is sorted and free of duplicates.
func ExpandPatterns(fs afero.Fs, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	seen := map[string]bool{}
	var files []string

	for _, pattern := range patterns {
		matches, err := expand(fs, filepath.ToSlash(pattern))
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

func expand(fs afero.Fs, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid pattern")
	}

	base, rest := doublestar.SplitPattern(pattern)

	if strings.HasPrefix(base, "/") {
		matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, base)), rest, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for i, m := range matches {
			matches[i] = path.Join(base, m)
		}
		return matches, nil
	}

	return doublestar.Glob(afero.NewIOFS(fs), path.Clean(pattern), doublestar.WithFilesOnly())
}

// TabWidth returns the tab width .editorconfig files configure for file, or 0
// when none is set.
func TabWidth(file string) int {
	def, err := editorconfig.GetDefinitionForFilename(file)
	if err != nil || def == nil {
		return 0
	}
	if def.TabWidth > 0 {
		return def.TabWidth
	}
	return 0
}
