// Package debug builds the console logger used by the command line tools.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const defaultTimeFormat = "15:04:05.0000"

// LoggerOpts configures NewLogger.
type LoggerOpts struct {
	Level      zerolog.Level
	Color      bool
	Caller     bool
	TimeFormat string
}

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer, opts LoggerOpts) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !opts.Color,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}

	logger := zerolog.New(cw).Level(opts.Level).Hook(TimeHook{Format: opts.TimeFormat})
	if opts.Caller {
		logger = logger.Hook(CallerHook{WithColor: opts.Color})
	}
	return logger
}

// TimeHook stamps events with a short local time.
type TimeHook struct {
	Format string
}

func (t TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = defaultTimeFormat
	}
	e.Str("time", time.Now().Format(format))
}

// CallerHook adds a "pkg:file:line" caller field.
type CallerHook struct {
	WithColor bool
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}

	pkg, _ := SplitFuncName(fn.Name())

	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// skipFrames reads the event's unexported skip count so callers wrapping the
// logger still report their own frame.
func skipFrames(e *zerolog.Event) int {
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")
	if field.IsValid() && field.CanInt() {
		return int(field.Int())
	}
	return 0
}

// SplitFuncName splits a fully qualified function name as returned by
// runtime.FuncForPC into its package path and function part.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash

	pkg = name[:dot]
	function = name[dot+1:]

	if before, after, found := strings.Cut(pkg, ".("); found {
		pkg = before
		function = "(" + after + "." + function
	}

	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}

	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}

	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
}
