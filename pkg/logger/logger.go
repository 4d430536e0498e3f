package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// TimeFormat is used for the timestamp of every system and business entry.
	TimeFormat = "2006-01-02 15:04:05"

	// ErrorKey is the metadata key whose error value is rendered with its stack.
	ErrorKey = "error"
)

func init() {
	zerolog.TimeFieldFormat = TimeFormat
	zerolog.TimestampFieldName = "timestamp"
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Fields is the metadata attached to a log entry.
type Fields map[string]any

// Options configures the loggers built by New.
type Options struct {
	Environment string
	// Level overrides the environment default threshold when non-empty.
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxAgeDays int
	Compress   bool
	// Console defaults to os.Stdout.
	Console io.Writer
	// BusinessHooks run for every business record, e.g. to count events.
	BusinessHooks []zerolog.Hook
}

// Loggers holds the system and business channels plus the exceptions channel
// used for process-level failures. Construct once and share.
type Loggers struct {
	system     zerolog.Logger
	business   zerolog.Logger
	exceptions zerolog.Logger
	threshold  Level
	closers    []io.Closer
}

// New builds the loggers for opts.Environment. Production writes date-rotated
// files plus a plain console; every other environment writes to a colorized console.
func New(opts Options) (*Loggers, error) {
	threshold := DefaultLevel(opts.Environment)
	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		threshold = lvl
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Loggers{threshold: threshold}

	var systemOut, businessOut, exceptionsOut io.Writer
	if opts.Environment == EnvProduction {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		errorsFile := l.daily(opts, "error")
		combined := l.daily(opts, "combined")
		plain := textWriter(console, false)

		systemOut = zerolog.MultiLevelWriter(
			&zerolog.FilteredLevelWriter{
				Writer: zerolog.LevelWriterAdapter{Writer: textWriter(errorsFile, false)},
				Level:  zerolog.ErrorLevel,
			},
			textWriter(combined, false),
			plain,
		)
		businessOut = l.daily(opts, "business")
		exceptionsOut = zerolog.MultiLevelWriter(textWriter(l.daily(opts, "exceptions"), false), plain)
	} else {
		colored := textWriter(console, true)
		systemOut = colored
		businessOut = colored
		exceptionsOut = colored
	}

	l.system = zerolog.New(systemOut).Level(threshold.zerolog()).With().Timestamp().Logger()
	l.business = newBusiness(businessOut, opts.BusinessHooks)
	l.exceptions = zerolog.New(exceptionsOut).With().Timestamp().Logger()
	return l, nil
}

// NewJSON writes raw JSON records to the given writers. Used by tests and tools
// that want machine-readable output.
func NewJSON(system, business io.Writer, threshold Level, hooks ...zerolog.Hook) *Loggers {
	return &Loggers{
		system:     zerolog.New(system).Level(threshold.zerolog()).With().Timestamp().Logger(),
		business:   newBusiness(business, hooks),
		exceptions: zerolog.New(system).With().Timestamp().Logger(),
		threshold:  threshold,
	}
}

// Nop discards everything.
func Nop() *Loggers {
	return NewJSON(io.Discard, io.Discard, LevelFatal)
}

func newBusiness(w io.Writer, hooks []zerolog.Hook) zerolog.Logger {
	lg := zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	for _, h := range hooks {
		lg = lg.Hook(h)
	}
	return lg
}

func (l *Loggers) daily(opts Options, prefix string) *DailyFile {
	f := NewDailyFile(RotateConfig{
		Dir:        opts.Dir,
		Prefix:     prefix,
		MaxSizeMB:  opts.MaxSizeMB,
		MaxAgeDays: opts.MaxAgeDays,
		Compress:   opts.Compress,
	})
	l.closers = append(l.closers, f)
	return f
}

// Threshold returns the configured system threshold.
func (l *Loggers) Threshold() Level {
	return l.threshold
}

// System exposes the system channel for callers that build events themselves.
func (l *Loggers) System() *zerolog.Logger {
	return &l.system
}

// Business exposes the business channel.
func (l *Loggers) Business() *zerolog.Logger {
	return &l.business
}

// LogSystem writes one system entry. It never panics.
func (l *Loggers) LogSystem(level Level, message string, fields Fields) {
	if l == nil {
		return
	}
	defer func() { _ = recover() }()

	withFields(l.system.WithLevel(level.zerolog()), fields).Msg(message)
}

// LogBusiness writes one business record named after event. It never panics.
func (l *Loggers) LogBusiness(event string, fields Fields) {
	if l == nil {
		return
	}
	defer func() { _ = recover() }()

	withFields(l.business.Info(), fields).Msg(event)
}

// CapturePanic is deferred at the top of main and of long-lived goroutines.
// A recovered panic goes to the exceptions channel and the process exits with 1.
func (l *Loggers) CapturePanic() {
	r := recover()
	if r == nil {
		return
	}
	func() {
		defer func() { _ = recover() }()
		l.exceptions.WithLevel(zerolog.FatalLevel).
			Str("stack", string(debug.Stack())).
			Msgf("Uncaught exception: %v", r)
	}()
	_ = l.Close()
	exit(1)
}

var exit = os.Exit

// Close flushes and closes every file destination.
func (l *Loggers) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func withFields(e *zerolog.Event, fields Fields) *zerolog.Event {
	if e == nil {
		return nil
	}
	for k, v := range fields {
		if err, ok := v.(error); ok && k == ErrorKey {
			e = e.Stack().Err(err)
			continue
		}
		e = e.Interface(k, v)
	}
	return e
}

var levelColors = map[string]int{
	"fatal": 35, // magenta
	"error": 31, // red
	"warn":  33, // yellow
	"info":  32, // green
	"debug": 34, // blue
}

// textWriter renders "<timestamp> <level>: <stack or message> <fields>".
func textWriter(out io.Writer, color bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !color,
		TimeFormat: TimeFormat,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FormatLevel: func(i any) string {
			name, _ := i.(string)
			if code, ok := levelColors[name]; ok && color {
				return fmt.Sprintf("\x1b[%dm%s:\x1b[0m", code, name)
			}
			return name + ":"
		},
		FormatPrepare: stackOverMessage,
	}
}

// stackOverMessage replaces the message with the error's stack trace when one
// was recorded.
func stackOverMessage(evt map[string]any) error {
	frames, ok := evt[zerolog.ErrorStackFieldName].([]any)
	if !ok || len(frames) == 0 {
		return nil
	}
	var b strings.Builder
	if msg, ok := evt[zerolog.MessageFieldName].(string); ok {
		b.WriteString(msg)
	}
	if errText, ok := evt[zerolog.ErrorFieldName].(string); ok {
		b.WriteString(": ")
		b.WriteString(errText)
	}
	for _, f := range frames {
		frame, ok := f.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n    at %v (%v:%v)", frame["func"], frame["source"], frame["line"])
	}
	evt[zerolog.MessageFieldName] = b.String()
	delete(evt, zerolog.ErrorStackFieldName)
	return nil
}
