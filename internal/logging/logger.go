package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// LogFormatter renders one line per entry:
// [2026-03-01 14:00:00] [a1b2c3d4] [debug] retrying request method=GET path=/links attempt=2
type LogFormatter struct{}

var logFieldOrder = []string{"method", "path", "status", "attempt", "delay", "items", "state", "error"}

func (m *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	var buffer *bytes.Buffer
	if entry.Buffer != nil {
		buffer = entry.Buffer
	} else {
		buffer = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	reqID := "--------"
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		reqID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	var fieldsStr string
	if len(entry.Data) > 0 {
		var fields []string
		for _, k := range logFieldOrder {
			if v, ok := entry.Data[k]; ok {
				fields = append(fields, fmt.Sprintf("%s=%v", k, v))
			}
		}

		// Fields outside logFieldOrder follow in key order.
		var rest []string
		for k := range entry.Data {
			if k != "request_id" && !slices.Contains(logFieldOrder, k) {
				rest = append(rest, k)
			}
		}
		slices.Sort(rest)
		for _, k := range rest {
			fields = append(fields, fmt.Sprintf("%s=%v", k, entry.Data[k]))
		}
		if len(fields) > 0 {
			fieldsStr = " " + strings.Join(fields, " ")
		}
	}

	fmt.Fprintf(buffer, "[%s] [%s] [%-5s] %s%s\n", timestamp, reqID, level, message, fieldsStr)
	return buffer.Bytes(), nil
}

type Options struct {
	Verbose bool
	// LogFile, when set, sends logs to a rotating file instead of stderr.
	LogFile string
}

// Configure sets up the shared logrus instance. It may be called again to
// switch outputs; the previous file writer is closed.
func Configure(opts Options) error {
	writerMu.Lock()
	defer writerMu.Unlock()

	log.SetFormatter(&LogFormatter{})
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}

	if opts.LogFile == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o700); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}

	logWriter = &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	log.SetOutput(logWriter)
	// File logs are for later inspection, so they always carry debug detail.
	log.SetLevel(log.DebugLevel)
	return nil
}

// Close flushes and releases the file writer, if any.
func Close() {
	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
	log.SetOutput(io.Discard)
}
