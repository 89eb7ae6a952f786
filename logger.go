package ember

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/template"
	"time"
)

// loggerLevel is the level of a Logger entry.
type loggerLevel uint8

// Logger levels.
const (
	lvlDebug loggerLevel = iota
	lvlInfo
	lvlWarn
	lvlError
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// Logger is a leveled logger over an io.Writer, used for connection-loop
// diagnostics (accept errors, handler panics, parse failures). It
// renders each line through a text/template format string, reusing
// buffers from a sync.Pool, and recognizes the four levels the
// connection loop actually emits.
type Logger struct {
	Output  io.Writer
	Enabled bool
	Format  string

	template   *template.Template
	bufferPool sync.Pool
	mu         sync.Mutex
}

// NewLogger returns a Logger writing to os.Stderr with a default
// JSON line format.
func NewLogger() *Logger {
	return &Logger{
		Output:  os.Stderr,
		Enabled: true,
		Format: `{"time":"{{.time_rfc3339}}","level":"{{.level}}",` +
			`"message":""}`,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 256))
			},
		},
	}
}

func (l *Logger) log(lvl loggerLevel, format string, args ...interface{}) {
	if l == nil || !l.Enabled {
		return
	}

	l.mu.Lock()
	if l.template == nil {
		l.template = template.Must(template.New("logger").Parse(l.Format))
	}
	l.mu.Unlock()

	message := fmt.Sprint(args...)
	if format != "" {
		message = fmt.Sprintf(format, args...)
	}

	buf := l.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	data := map[string]interface{}{
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        levelNames[lvl],
	}
	if err := l.template.Execute(buf, data); err != nil {
		fmt.Fprintf(l.Output, "%s %s\n", levelNames[lvl], message)
		return
	}

	s := buf.String()
	if i := bytes.LastIndexByte(buf.Bytes(), '}'); i >= 0 {
		out := s[:i] + `,"detail":"` + jsonEscape(message) + `"}`
		io.WriteString(l.Output, out+"\n")
		return
	}
	fmt.Fprintf(l.Output, "%s %s\n", s, message)
}

func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(args ...interface{}) { l.log(lvlDebug, "", args...) }

// Debugf logs at DEBUG level with a format string.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(lvlDebug, format, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(args ...interface{}) { l.log(lvlInfo, "", args...) }

// Infof logs at INFO level with a format string.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(lvlInfo, format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(args ...interface{}) { l.log(lvlWarn, "", args...) }

// Warnf logs at WARN level with a format string.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(lvlWarn, format, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(args ...interface{}) { l.log(lvlError, "", args...) }

// Errorf logs at ERROR level with a format string.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(lvlError, format, args...)
}
