// Package errorstage flattens everything known to be wrong with a template into
// the single ordered list the host highlights. It runs after directive validation
// and before highlighting and usage collection.
package errorstage

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/syntax"
)

const checkEvery = 1024

// Collect walks tree in pre-order, children in source order, and returns for each
// node its lex and parse problems followed by its validation findings. The order
// depends only on the tree, so unchanged input yields the same list. When ctx is
// cancelled no diagnostics are returned.
func Collect(ctx context.Context, tree *syntax.Tree) ([]diagnostic.Diagnostic, error) {
	if tree == nil {
		return nil, errors.Errorf("tree is nil")
	}

	out := make([]diagnostic.Diagnostic, 0)
	visited := 0
	var cancelled error

	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		if cancelled != nil {
			return false
		}
		visited++
		if visited%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				cancelled = err
				return false
			}
		}
		out = append(out, tree.Problems(id)...)
		out = append(out, tree.Findings(id)...)
		return true
	})

	if cancelled != nil {
		return nil, errors.Errorf("collecting diagnostics: %w", cancelled)
	}

	zerolog.Ctx(ctx).Debug().
		Int("nodes", visited).
		Int("errors", diagnostic.Count(out, diagnostic.SeverityError)).
		Int("warnings", diagnostic.Count(out, diagnostic.SeverityWarning)).
		Msg("collected diagnostics")

	return out, nil
}
