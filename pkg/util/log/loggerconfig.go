package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// LoggingOutput - the destination for log lines
type LoggingOutput int

// logging output options
const (
	STDOUT LoggingOutput = iota
	File
	Both
)

// GlobalLoggerConfig - is the default config of the logger
var GlobalLoggerConfig LoggerConfig

func init() {
	GlobalLoggerConfig = LoggerConfig{
		output: STDOUT,
		path:   ".",
		cfg: rotatefilehook.RotateFileConfig{
			Filename:  "companion.log",
			MaxSize:   10,
			MaxAge:    0,
			Level:     logrus.InfoLevel,
			Formatter: &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
		},
	}
}

// LoggerConfig - is a builder used to setup the SDK logger
type LoggerConfig struct {
	err    error
	output LoggingOutput
	path   string
	cfg    rotatefilehook.RotateFileConfig
}

// Level - sets the logging level
func (b *LoggerConfig) Level(level string) *LoggerConfig {
	if b.err == nil {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			b.err = fmt.Errorf("invalid log level %s", level)
			return b
		}
		b.cfg.Level = lvl
	}
	return b
}

// Format - sets the logging format, json or line
func (b *LoggerConfig) Format(format string) *LoggerConfig {
	if b.err == nil {
		switch strings.ToLower(format) {
		case "json":
			b.cfg.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
		case "line":
			b.cfg.Formatter = &logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true}
		default:
			b.err = fmt.Errorf("invalid log format %s", format)
		}
	}
	return b
}

// Output - sets the logging output, stdout, file or both
func (b *LoggerConfig) Output(output string) *LoggerConfig {
	if b.err == nil {
		switch strings.ToLower(output) {
		case "stdout":
			b.output = STDOUT
		case "file":
			b.output = File
		case "both":
			b.output = Both
		default:
			b.err = fmt.Errorf("invalid log output %s", output)
		}
	}
	return b
}

// Path - sets the directory used for file output
func (b *LoggerConfig) Path(logPath string) *LoggerConfig {
	if b.err == nil {
		b.path = logPath
	}
	return b
}

// Apply - applies the config changes to the logger
func (b *LoggerConfig) Apply() error {
	if b.err != nil {
		return b.err
	}

	log.SetFormatter(b.cfg.Formatter)
	log.SetLevel(b.cfg.Level)
	log.SetOutput(io.Discard)

	if b.output == STDOUT || b.output == Both {
		log.SetOutput(io.Writer(os.Stdout))
	}

	if b.output == File || b.output == Both {
		cfg := b.cfg
		cfg.Filename = path.Join(b.path, cfg.Filename)
		rotateFileHook, err := rotatefilehook.NewRotateFileHook(cfg)
		if err != nil {
			return err
		}
		log.AddHook(rotateFileHook)
	}

	return nil
}
