// Package analysis runs the template core for the host: one task per document
// version, cancelled as soon as a newer version of the same document arrives.
package analysis

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/directive"
	"github.com/walteh/t4ls/pkg/environment"
	"github.com/walteh/t4ls/pkg/errorstage"
	"github.com/walteh/t4ls/pkg/parser"
)

// Analyzer runs lex, parse, validation and collection for one document. It holds
// only read-only configuration and is safe to share between tasks.
type Analyzer struct {
	registry *directive.Registry
	env      *environment.Environment
	fs       afero.Fs
}

type AnalyzerOpt func(*Analyzer)

// WithFileSystem enables include resolution against fs.
func WithFileSystem(fs afero.Fs) AnalyzerOpt {
	return func(a *Analyzer) {
		a.fs = fs
	}
}

func NewAnalyzer(registry *directive.Registry, env *environment.Environment, opts ...AnalyzerOpt) *Analyzer {
	if registry == nil {
		registry = directive.DefaultRegistry()
	}
	if env == nil {
		env = &environment.Environment{}
	}
	a := &Analyzer{registry: registry, env: env}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze processes doc synchronously. It returns an error only when ctx is
// cancelled, in which case nothing of the partial work is returned.
func (a *Analyzer) Analyze(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil {
		return nil, errors.Errorf("document is nil")
	}

	tree, err := parser.Parse(ctx, doc.Content)
	if err != nil {
		return nil, errors.Errorf("analyzing %s@%d: %w", doc.URI, doc.Version, err)
	}

	var opts []directive.Option
	if a.fs != nil {
		opts = append(opts, directive.WithIncludeResolution(a.fs, normalizeURI(doc.URI), a.env.IncludePaths))
	}
	if err := directive.Validate(ctx, tree, a.registry, opts...); err != nil {
		return nil, errors.Errorf("analyzing %s@%d: %w", doc.URI, doc.Version, err)
	}

	diags, err := errorstage.Collect(ctx, tree)
	if err != nil {
		return nil, errors.Errorf("analyzing %s@%d: %w", doc.URI, doc.Version, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("analyzing %s@%d: %w", doc.URI, doc.Version, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("uri", doc.URI).
		Int32("version", doc.Version).
		Int("diagnostics", len(diags)).
		Msg("analyzed document")

	return &Result{
		URI:         doc.URI,
		Version:     doc.Version,
		Tree:        tree,
		Diagnostics: diags,
	}, nil
}
