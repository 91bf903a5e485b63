package querylog

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAndTail(t *testing.T) {
	l := &Logger{Path: filepath.Join(t.TempDir(), "search_log.txt")}

	l.Record("站内查询", map[string]string{"webtext": "http://a/b", "keytext": "新闻"})
	l.Record("短语查询", map[string]string{"keytext": "南开大学"})

	lines, err := l.Tail(20)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "站内查询") || !strings.Contains(lines[0], `"webtext":"http://a/b"`) {
		t.Fatalf("unexpected line: %q", lines[0])
	}
}

func TestTail_LimitsToLastN(t *testing.T) {
	l := &Logger{Path: filepath.Join(t.TempDir(), "log.txt")}
	for i := 0; i < 30; i++ {
		l.Record("通配查询", map[string]int{"i": i})
	}
	lines, err := l.Tail(20)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[19], `{"i":29}`) {
		t.Fatalf("tail must end with the newest line: %q", lines[19])
	}
}

func TestTail_MissingFileIsEmpty(t *testing.T) {
	l := &Logger{Path: filepath.Join(t.TempDir(), "absent.txt")}
	lines, err := l.Tail(20)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty log, got %d lines", len(lines))
	}
}
