package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains []string
		absent   []string
	}{
		{
			name:     "human",
			format:   "human",
			contains: []string{"level=INFO", "msg=hello", "key=value"},
			absent:   []string{"time="},
		},
		{
			name:     "default is human",
			format:   "",
			contains: []string{"msg=hello"},
			absent:   []string{"time="},
		},
		{
			name:     "text",
			format:   "text",
			contains: []string{"time=", "msg=hello", "key=value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := NewWithWriter(tt.format, slog.LevelInfo, &buf)
			if err != nil {
				t.Fatalf("NewWithWriter() error = %v", err)
			}
			l.Info(context.Background(), "hello", "key", "value")
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output %q does not contain %q", out, s)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output %q contains %q", out, s)
				}
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("json", slog.LevelDebug, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	l.With("runId", "r1").Debugf(context.Background(), "loaded %d documents", 2)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "loaded 2 documents" {
		t.Errorf("msg = %v, want %q", rec["msg"], "loaded 2 documents")
	}
	if rec["runId"] != "r1" {
		t.Errorf("runId = %v, want r1", rec["runId"])
	}
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("text", slog.LevelWarn, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	ctx := context.Background()
	l.Info(ctx, "skipped")
	l.Warn(ctx, "kept")
	if strings.Contains(buf.String(), "skipped") {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestNewWithWriter_Unsupported(t *testing.T) {
	if _, err := NewWithWriter("xml", slog.LevelInfo, io.Discard); err == nil {
		t.Errorf("NewWithWriter(xml) want error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("FromContext() returned nil without a stored logger")
	}
	var buf bytes.Buffer
	l, _ := NewWithWriter("text", slog.LevelInfo, &buf)
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info(ctx, "from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("stored logger not used: %q", buf.String())
	}
}

func TestOpenOutput(t *testing.T) {
	for _, value := range []string{"", "-"} {
		out, err := OpenOutput(value)
		if err != nil {
			t.Fatalf("OpenOutput(%q) error = %v", value, err)
		}
		if out.Writer() != os.Stderr {
			t.Errorf("OpenOutput(%q) writer is not stderr", value)
		}
	}

	out, err := OpenOutput("none")
	if err != nil {
		t.Fatalf("OpenOutput(none) error = %v", err)
	}
	if out.Writer() != io.Discard || out.Path != "" {
		t.Errorf("OpenOutput(none) = %+v, want discard", out)
	}

	path := filepath.Join(t.TempDir(), "logs", "wfdef.log")
	out, err = OpenOutput(path)
	if err != nil {
		t.Fatalf("OpenOutput(path) error = %v", err)
	}
	if _, err := io.WriteString(out.Writer(), "line\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if string(data) != "line\n" {
		t.Errorf("log file content = %q", data)
	}
}
