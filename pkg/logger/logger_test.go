package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{
			name:          "debug message when level is debug",
			level:         LevelDebug,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: true,
		},
		{
			name:          "debug message when level is info",
			level:         LevelInfo,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: false,
		},
		{
			name:          "info message when level is warn",
			level:         LevelWarn,
			logFunc:       func(l Logger, msg string) { l.Info(msg) },
			expectedInLog: false,
		},
		{
			name:          "warn message when level is warn",
			level:         LevelWarn,
			logFunc:       func(l Logger, msg string) { l.Warn(msg) },
			expectedInLog: true,
		},
		{
			name:          "error message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Error(msg) },
			expectedInLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(tt.level, buf)

			tt.logFunc(logger, "test message")

			output := buf.String()
			if strings.Contains(output, "test message") != tt.expectedInLog {
				t.Errorf("expected message in log: %v (output: %s)", tt.expectedInLog, output)
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LevelInfo, buf)

	logger.Info("annotated parameter",
		F("function", "add"),
		F("calls", 3),
	)

	output := buf.String()
	for _, want := range []string{"annotated parameter", "| function=add", "calls=3", "[INFO]"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(LevelInfo, buf)

	child := base.WithFields(F("run", "a1b2c3d4"), F("file", "src/math.ts"))
	child.Info("inference complete", F("annotated", 2))

	output := buf.String()
	for _, field := range []string{"run=a1b2c3d4", "file=src/math.ts", "annotated=2"} {
		if !strings.Contains(output, field) {
			t.Errorf("expected %s in output, got: %s", field, output)
		}
	}

	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "run=") {
		t.Errorf("parent logger should not carry child fields, got: %s", buf.String())
	}
}

func TestLogger_SetLevelAppliesToDerivedLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(LevelError, buf)
	child := base.WithFields(F("k", "v"))

	child.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("expected no output at error level, got: %s", buf.String())
	}

	base.SetLevel(LevelInfo)
	child.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected derived logger to follow SetLevel, got: %s", buf.String())
	}
}

func TestLogger_SilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LevelSilent, buf)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	if buf.Len() > 0 {
		t.Errorf("expected no output in silent mode, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"off", LevelSilent, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelSilent, "SILENT"},
		{Level(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefault_Swap(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	buf := &bytes.Buffer{}
	SetDefault(NewLogger(LevelDebug, buf))
	Debug("through package helper")

	if !strings.Contains(buf.String(), "through package helper") {
		t.Errorf("expected package-level Debug to use the default logger, got: %s", buf.String())
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLogger(LevelInfo, bytes.NewBuffer(make([]byte, 0, 1024*1024)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message",
			F("iteration", i),
			F("key", "value"),
		)
	}
}
