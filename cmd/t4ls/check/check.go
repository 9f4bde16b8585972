package check

import (
	"context"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/t4ls/pkg/analysis"
	"github.com/walteh/t4ls/pkg/debug"
	"github.com/walteh/t4ls/pkg/diagnostic"
	"github.com/walteh/t4ls/pkg/environment"
	"github.com/walteh/t4ls/pkg/position"
)

var ErrDiagnostics = errors.Base("templates have errors")

type Handler struct {
	debug      bool
	color      bool
	format     string
	configPath string
	jobs       int

	fs afero.Fs
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "check [glob...]",
		Short: "report diagnostics for template files",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&me.color, "color", false, "colorize text output")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text or vscode")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a config file (default "+environment.DefaultConfigFile+" if present)")
	cmd.Flags().IntVar(&me.jobs, "jobs", runtime.GOMAXPROCS(0), "number of files checked concurrently")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if me.debug {
			level = zerolog.DebugLevel
		}
		logger := debug.NewLogger(cmd.ErrOrStderr(), debug.LoggerOpts{Level: level, Color: me.color, Caller: me.debug})
		ctx := logger.WithContext(cmd.Context())

		out, err := me.Run(ctx, args)
		if len(out) > 0 {
			if _, werr := cmd.OutOrStdout().Write(out); werr != nil {
				return errors.Errorf("writing output: %w", werr)
			}
		}
		return err
	}

	return cmd
}

func (me *Handler) isText() bool {
	return me.format == "text" || me.format == ""
}

func (me *Handler) formatter() (diagnostic.Formatter, error) {
	switch me.format {
	case "text", "":
		return diagnostic.NewTextFormatter(me.color), nil
	case "vscode", "json":
		return diagnostic.NewVSCodeFormatter(), nil
	default:
		return nil, errors.Errorf("unknown format %q", me.format)
	}
}

// Run checks every file matching args and returns the formatted report. The
// error is ErrDiagnostics when any template has an error-severity diagnostic;
// files that could not be read are reported together in a multierror.
func (me *Handler) Run(ctx context.Context, args []string) ([]byte, error) {
	formatter, err := me.formatter()
	if err != nil {
		return nil, err
	}

	reg, env, err := environment.Resolve(ctx, me.fs, me.configPath)
	if err != nil {
		return nil, err
	}

	files, err := ExpandPatterns(me.fs, args)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Strs("files", files).Msg("checking files")

	analyzer := analysis.NewAnalyzer(reg, env, analysis.WithFileSystem(me.fs))

	reports := make([]*diagnostic.Report, len(files))
	var (
		mu     sync.Mutex
		failed *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	if me.jobs > 0 {
		g.SetLimit(me.jobs)
	}

	for i, file := range files {
		g.Go(func() error {
			report, err := me.checkFile(gctx, analyzer, file)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				failed = multierror.Append(failed, err)
				mu.Unlock()
				return nil
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("checking files: %w", err)
	}

	var done []*diagnostic.Report
	errorCount := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		errorCount += diagnostic.Count(r.Diagnostics, diagnostic.SeverityError)
		done = append(done, r)
	}

	out, err := formatter.Format(done...)
	if err != nil {
		return nil, errors.Errorf("formatting diagnostics: %w", err)
	}

	if err := failed.ErrorOrNil(); err != nil {
		return out, errors.Errorf("reading templates: %w", err)
	}

	if errorCount > 0 {
		return out, errors.Errorf("%d error(s) in %d file(s): %w", errorCount, len(done), ErrDiagnostics)
	}

	return out, nil
}

func (me *Handler) checkFile(ctx context.Context, analyzer *analysis.Analyzer, file string) (*diagnostic.Report, error) {
	content, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", file, err)
	}

	res, err := analyzer.Analyze(ctx, &analysis.Document{URI: file, Content: string(content)})
	if err != nil {
		return nil, err
	}

	var opts []position.MapperOpt
	// visual columns only make sense for people reading text output
	if _, isOS := me.fs.(*afero.OsFs); isOS && me.isText() {
		if w := TabWidth(file); w > 0 {
			opts = append(opts, position.WithTabWidth(w))
		}
	}

	return &diagnostic.Report{
		File:        file,
		Mapper:      position.NewMapper(res.Tree.Source(), opts...),
		Diagnostics: res.Diagnostics,
	}, nil
}
