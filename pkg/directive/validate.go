package directive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/syntax"
)

const checkEvery = 32

type validator struct {
	tree         *syntax.Tree
	registry     *Registry
	ann          *syntax.Annotations
	fs           afero.Fs
	templatePath string
	includePaths []string
}

type Option func(*validator)

// WithIncludeResolution makes validation report include directives whose file
// cannot be found next to templatePath or in any of includePaths.
func WithIncludeResolution(fs afero.Fs, templatePath string, includePaths []string) Option {
	return func(v *validator) {
		v.fs = fs
		v.templatePath = templatePath
		v.includePaths = includePaths
	}
}

// Validate checks every directive of tree against registry. The results replace
// the tree's annotation table as a whole, so running Validate again on the same
// tree yields the same annotations. When ctx is cancelled the tree is left
// untouched and the context error is returned.
func Validate(ctx context.Context, tree *syntax.Tree, registry *Registry, opts ...Option) error {
	if tree == nil {
		return errors.Errorf("tree is nil")
	}
	if registry == nil {
		return errors.Errorf("directive registry is nil")
	}

	v := &validator{
		tree:     tree,
		registry: registry,
		ann:      syntax.NewAnnotations(),
	}
	for _, opt := range opts {
		opt(v)
	}

	unique := map[string]bool{}
	for i, d := range tree.Directives() {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Errorf("validating directives: %w", err)
			}
		}
		v.directive(d, unique)
	}

	tree.Annotate(v.ann)

	zerolog.Ctx(ctx).Debug().
		Int("directives", len(tree.Directives())).
		Int("findings", v.ann.Len()).
		Msg("validated directives")

	return nil
}

func (v *validator) report(id syntax.NodeID, sev diagnostic.Severity, code diagnostic.Code, loc position.Span, format string, args ...any) {
	v.ann.Report(id, diagnostic.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

func (v *validator) directive(d syntax.DirectiveNode, unique map[string]bool) {
	name := d.Name()
	if name == "" {
		// already reported by the parser
		return
	}
	nameSpan := v.tree.Span(d.NameToken())

	info, ok := v.registry.Lookup(name)
	if !ok {
		v.report(d.ID(), diagnostic.SeverityWarning, diagnostic.ValidationUnknownDirective, nameSpan,
			"unknown directive '%s'", name)
		return
	}

	if info.Unique {
		key := strings.ToLower(info.Name)
		if unique[key] {
			v.report(d.ID(), diagnostic.SeverityWarning, diagnostic.ValidationRepeatedDirective, nameSpan,
				"the %s directive can only appear once; this one is ignored", info.Name)
		}
		unique[key] = true
	}

	seen := map[string]bool{}
	for _, a := range d.Attributes() {
		v.attribute(info, a, seen)
	}

	for _, req := range info.RequiredAttributes() {
		if !seen[strings.ToLower(req.Name)] {
			v.report(d.ID(), diagnostic.SeverityError, diagnostic.ValidationMissingAttribute, nameSpan,
				"missing required attribute '%s' for directive '%s'", req.Name, info.Name)
		}
	}
}

func (v *validator) attribute(info *Info, a syntax.AttributeNode, seen map[string]bool) {
	name := a.Name()
	if name == "" {
		return
	}
	nameSpan := v.tree.Span(a.NameToken())

	key := strings.ToLower(name)
	if seen[key] {
		v.report(a.ID(), diagnostic.SeverityWarning, diagnostic.ValidationDuplicateAttr, nameSpan,
			"duplicate attribute '%s'; the first occurrence is used", name)
		return
	}
	seen[key] = true

	attr, ok := info.Attribute(name)
	if !ok {
		v.report(a.ID(), diagnostic.SeverityWarning, diagnostic.ValidationUnknownAttribute, nameSpan,
			"unknown attribute '%s' for directive '%s'", name, info.Name)
		return
	}

	value, ok := a.Value()
	if !ok {
		// malformed value, already reported by the parser
		return
	}

	if msg, ok := attr.Grammar.Check(value); !ok {
		v.ann.SetValueError(a.ID(), msg)
		v.report(a.ID(), diagnostic.SeverityError, diagnostic.ValidationInvalidValue, a.ValueSpan(), "%s", msg)
		return
	}

	if v.fs != nil && strings.EqualFold(info.Name, "include") && strings.EqualFold(attr.Name, "file") {
		if !v.includeExists(value) {
			v.report(a.ID(), diagnostic.SeverityWarning, diagnostic.ValidationIncludeNotFound, a.ValueSpan(),
				"included file '%s' not found", value)
		}
	}
}

func (v *validator) includeExists(file string) bool {
	if strings.Contains(file, "$(") || strings.Contains(file, "%") {
		// host macros and environment variables are expanded by the host
		return true
	}
	file = filepath.FromSlash(strings.ReplaceAll(file, `\`, "/"))

	candidates := []string{}
	if filepath.IsAbs(file) {
		candidates = append(candidates, file)
	} else {
		if v.templatePath != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(v.templatePath), file))
		}
		for _, dir := range v.includePaths {
			candidates = append(candidates, filepath.Join(dir, file))
		}
	}

	for _, c := range candidates {
		if ok, err := afero.Exists(v.fs, c); err == nil && ok {
			return true
		}
	}
	return false
}
