package trust

import (
	"fmt"
	"io"
	"os"
	"sync"

	"riscvrt/src/lib/semihosting"
)

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	StatsMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80
)

// Logger is a masked logger that writes to a single sink.  Every line is
// tagged with the logger's prefix, usually the hart that produced it.
// The zero value is not usable, use New or the package level functions.
type Logger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  *MaskLevel
	prefix string
}

var std = New(os.Stdout, "")

// New returns a logger writing to out with everything but debug enabled.
func New(out io.Writer, prefix string) *Logger {
	l := fatalMask | StatsMask | ErrorMask | WarnMask | InfoMask
	return &Logger{mu: new(sync.Mutex), out: out, level: &l, prefix: prefix}
}

// Default returns the logger used by the package level functions.
func Default() *Logger {
	return std
}

// SetOutput changes where the package level logger writes.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

// WithPrefix returns a logger that shares sink and level with l but tags
// its lines with prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{mu: l.mu, out: l.out, level: l.level, prefix: prefix}
}

// SetLevel lets you set an error mask directly. You can pass in something like
// ErrorMask | DebugMask to control exactly what gets printed.  Enabling a
// level enables every less chatty level too.
// It returns the previous mask.
func (l *Logger) SetLevel(mask MaskLevel) MaskLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := Nothing
	switch {
	case mask&StatsMask > 0:
		result |= StatsMask
		fallthrough
	case mask&DebugMask > 0:
		result |= DebugMask
		fallthrough
	case mask&InfoMask > 0:
		result |= InfoMask
		fallthrough
	case mask&WarnMask > 0:
		result |= WarnMask
		fallthrough
	case mask&ErrorMask > 0:
		result |= ErrorMask
	}
	r := *l.level & 0x1f
	*l.level = result | fatalMask
	return r
}

func (l *Logger) Level() MaskLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.level
}

func (l *Logger) LevelToString() string {
	level := l.Level()
	result := ""
	for _, m := range []struct {
		mask MaskLevel
		name string
	}{
		{ErrorMask, "error"},
		{WarnMask, "warn"},
		{InfoMask, "info"},
		{DebugMask, "debug"},
		{StatsMask, "stats"},
	} {
		if level&m.mask == 0 {
			continue
		}
		if result != "" {
			result += " "
		}
		result += m.name
	}
	return result
}

func (l *Logger) logf(m MaskLevel, format string, params ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if *l.level&m == 0 {
		return
	}
	tag := ""
	start := 0
	switch {
	case m&fatalMask > 0:
		tag = "FATAL:"
	case m&ErrorMask > 0:
		tag = "ERROR:"
	case m&WarnMask > 0:
		tag = " WARN:"
	case m&InfoMask > 0:
		tag = " INFO:"
	case m&DebugMask > 0:
		tag = "DEBUG:"
	case m&StatsMask > 0:
		s, ok := params[0].(string)
		if !ok {
			s = "unknown"
		}
		tag = fmt.Sprintf("STATS[%s]:", s)
		start = 1
	}
	if l.prefix != "" {
		tag = tag + "[" + l.prefix + "] "
	}
	if len(format) == 0 {
		format = "\n"
	} else if format[len(format)-1] != '\n' {
		format += "\n"
	}
	fmt.Fprintf(l.out, tag+format, params[start:]...)
}

//Fatalf prints the given log message (format + params) and then
//exits with the exitCode provided via semihosting.  Fatalf is not maskable.
func (l *Logger) Fatalf(exitCode int, format string, params ...interface{}) {
	l.logf(fatalMask, format, params...)
	semihosting.Abort(semihosting.SemihostingStopRuntimeErrorUnknown, uint64(exitCode))
}

//Errorf prints the given log message (format + params) using the ErrorMask level.
func (l *Logger) Errorf(format string, params ...interface{}) {
	l.logf(ErrorMask, format, params...)
}

//Warnf prints the given log message (format + params) using the WarnMask level.
func (l *Logger) Warnf(format string, params ...interface{}) {
	l.logf(WarnMask, format, params...)
}

//Infof prints the given log message (format + params) using the InfoMask level.
func (l *Logger) Infof(format string, params ...interface{}) {
	l.logf(InfoMask, format, params...)
}

//Debugf prints the given log message (format + params) using the DebugMask level.
func (l *Logger) Debugf(format string, params ...interface{}) {
	l.logf(DebugMask, format, params...)
}

//Statsf prints the given log message using the StatsMask level, tagged
//with the category of stats being reported.
func (l *Logger) Statsf(category string, format string, params ...interface{}) {
	l.logf(StatsMask, format, append([]interface{}{category}, params...)...)
}

func SetLevel(mask MaskLevel) MaskLevel { return std.SetLevel(mask) }
func Level() MaskLevel                  { return std.Level() }
func LevelToString() string             { return std.LevelToString() }

func Fatalf(exitCode int, format string, params ...interface{}) {
	std.Fatalf(exitCode, format, params...)
}
func Errorf(format string, params ...interface{}) { std.Errorf(format, params...) }
func Warnf(format string, params ...interface{})  { std.Warnf(format, params...) }
func Infof(format string, params ...interface{})  { std.Infof(format, params...) }
func Debugf(format string, params ...interface{}) { std.Debugf(format, params...) }
func Statsf(category string, format string, params ...interface{}) {
	std.Statsf(category, format, params...)
}
