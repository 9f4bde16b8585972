package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/t4ls/pkg/debug"
	"github.com/walteh/t4ls/pkg/directive"
	"github.com/walteh/t4ls/pkg/environment"
	"github.com/walteh/t4ls/pkg/parser"
	"github.com/walteh/t4ls/pkg/position"
	"github.com/walteh/t4ls/pkg/semtok"
)

type Handler struct {
	debug      bool
	lsp        bool
	configPath string

	fs afero.Fs
}

func NewTokensCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "print the highlighting tokens of a template",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&me.lsp, "lsp", false, "print LSP semantic token data as JSON")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a config file (default "+environment.DefaultConfigFile+" if present)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if me.debug {
			level = zerolog.TraceLevel
		}
		ctx := debug.NewLogger(cmd.ErrOrStderr(), debug.LoggerOpts{Level: level, Caller: me.debug}).WithContext(cmd.Context())

		out, err := me.Run(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return errors.Errorf("writing output: %w", err)
		}
		return nil
	}

	return cmd
}

type lspOutput struct {
	Legend semtok.Legend `json:"legend"`
	Data   []uint32      `json:"data"`
}

func (me *Handler) Run(ctx context.Context, file string) ([]byte, error) {
	content, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", file, err)
	}

	reg, _, err := environment.Resolve(ctx, me.fs, me.configPath)
	if err != nil {
		return nil, err
	}

	tree, err := parser.Parse(ctx, string(content))
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", file, err)
	}

	// invalid values are highlighted from the validation annotations
	if err := directive.Validate(ctx, tree, reg); err != nil {
		return nil, errors.Errorf("validating %s: %w", file, err)
	}

	toks := semtok.Classify(tree)
	mapper := position.NewMapper(tree.Source())

	if me.lsp {
		out, err := json.MarshalIndent(lspOutput{Legend: semtok.NewLegend(), Data: semtok.Encode(mapper, toks)}, "", "  ")
		if err != nil {
			return nil, errors.Errorf("encoding tokens: %w", err)
		}
		return append(out, '\n'), nil
	}

	var sb strings.Builder
	for _, tok := range toks {
		fmt.Fprintf(&sb, "%s\t%s", mapper.Place(tok.Span.Start), tok.Type)
		if tok.Modifier != semtok.ModifierNone {
			fmt.Fprintf(&sb, "[%s]", tok.Modifier)
		}
		fmt.Fprintf(&sb, "\t%q\n", tok.Span.Text(tree.Source()))
	}
	return []byte(sb.String()), nil
}
