// Package log is the CLI's diagnostic output: leveled key=value lines on
// stderr, so conversion results on stdout stay pipeable, plus a spinner for
// batch runs.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity. Messages below the logger's level are dropped.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes timestamped, leveled lines. Trailing args are alternating
// key/value pairs appended as key=value.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	colors bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a Logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level:  level,
		out:    w,
		colors: useColors(w),
	}
}

// Default returns the process-wide logger, writing to stderr at InfoLevel.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr, InfoLevel)
	})
	return defaultLogger
}

// SetLevel sets the minimum level for subsequent messages.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs at DebugLevel. Batch runs use it for cache statistics.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DebugLevel, msg, args...)
}

// Info logs at InfoLevel.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(InfoLevel, msg, args...)
}

// Warn logs at WarnLevel. Conversion warnings surface here.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WarnLevel, msg, args...)
}

// Error logs at ErrorLevel.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ErrorLevel, msg, args...)
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	line := formatMessage(msg, args...)
	if l.colors {
		line = levelColor(level) + line + "\033[0m"
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.out, "[%s] %s: %s\n", timestamp, level, line)
}

// formatMessage appends alternating key/value args as key=value. A leading
// odd argument is appended as-is; non-string keys are skipped.
func formatMessage(msg string, args ...interface{}) string {
	if len(args) == 0 {
		return msg
	}

	var sb strings.Builder
	sb.WriteString(msg)

	if len(args)%2 != 0 {
		fmt.Fprintf(&sb, " %v", args[0])
		args = args[1:]
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, " %s=%v", key, args[i+1])
	}
	return sb.String()
}

func levelColor(level Level) string {
	switch level {
	case DebugLevel:
		return "\033[36m"
	case InfoLevel:
		return "\033[32m"
	case WarnLevel:
		return "\033[33m"
	case ErrorLevel:
		return "\033[31m"
	default:
		return ""
	}
}

// useColors reports whether w is an interactive terminal that should get
// ANSI colors. NO_COLOR always wins.
func useColors(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ProgressSpinner animates a status line on stderr during batch conversion.
// It writes carriage returns rather than newlines, so Stop must run before
// any regular logging resumes.
type ProgressSpinner struct {
	mu      sync.Mutex
	message string
	frames  []string
	current int
	active  bool
	writer  io.Writer
	colors  bool
	done    chan struct{}
}

// NewProgressSpinner creates a spinner with an initial message. It does not
// draw until Start.
func NewProgressSpinner(message string) *ProgressSpinner {
	return &ProgressSpinner{
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		writer:  os.Stderr,
		colors:  useColors(os.Stderr),
	}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (p *ProgressSpinner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	p.active = true
	p.done = make(chan struct{})
	go p.animate(p.done)
}

// Stop ends the animation and clears the status line.
func (p *ProgressSpinner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return
	}
	p.active = false
	close(p.done)
	p.done = nil
	fmt.Fprint(p.writer, "\r\033[K")
}

// Message replaces the status text shown next to the spinner.
func (p *ProgressSpinner) Message(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = msg
}

func (p *ProgressSpinner) animate(done chan struct{}) {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.draw()
		case <-done:
			return
		}
	}
}

func (p *ProgressSpinner) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}

	frame := p.frames[p.current%len(p.frames)]
	p.current++
	if p.colors {
		fmt.Fprintf(p.writer, "\r\033[36m%s\033[0m %s", frame, p.message)
	} else {
		fmt.Fprintf(p.writer, "\r%s %s", frame, p.message)
	}
}
