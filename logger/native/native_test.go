package native

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plumcave/tui/logger"
)

func readLogs(t *testing.T, path string) []*logger.Log {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	out := make([]*logger.Log, 0)
	dec := json.NewDecoder(f)
	for {
		l := new(logger.Log)
		if err := dec.Decode(l); err != nil {
			if errors.Is(err, io.EOF) {
				return out
			}
			t.Fatal(err)
		}
		out = append(out, l)
	}
}

func TestLogWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	n, err := New(path, 1<<20, 3600, logger.InfoLevel)
	if err != nil {
		t.Fatal(err)
	}

	n.Log(logger.DebugLevel, "dropped")
	n.Log(logger.InfoLevel, "chunk %d of %d", 1, 3)
	n.Log(logger.ErrorLevel, "plain")
	n.Stop()

	logs := readLogs(t, path)
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Message != "chunk 1 of 3" || logs[0].Args != nil {
		t.Errorf("unexpected first log %+v", logs[0])
	}
	if logs[1].Level != logger.ErrorLevel {
		t.Errorf("level = %s", logs[1].Level)
	}
	if logs[0].SessionID == "" || logs[0].SessionID != n.SessionID() {
		t.Errorf("session id not stamped")
	}
	if n.Err() != nil {
		t.Errorf("worker err: %v", n.Err())
	}
}

func TestRotateBySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	n, err := New(path, 2048, 0, logger.DebugLevel)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		n.Log(logger.InfoLevel, "entry %d %s", i, strings.Repeat("x", 40))
	}
	// let the worker drain
	deadline := time.Now().Add(2 * time.Second)
	for len(n.logs) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	if err := n.Rotate(); err != nil {
		t.Fatal(err)
	}
	n.Log(logger.InfoLevel, "after")
	n.Stop()

	stats, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Size() > 2048 {
		t.Fatalf("size %d after rotation", stats.Size())
	}
	logs := readLogs(t, path)
	if logs[len(logs)-1].Message != "after" {
		t.Fatalf("writer not reopened, last = %q", logs[len(logs)-1].Message)
	}
	if strings.HasPrefix(logs[0].Message, "entry 0 ") {
		t.Fatalf("oldest entry kept")
	}
}

func TestRotateByAge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	old := &logger.Log{Level: logger.InfoLevel, Time: time.Now().Add(-48 * time.Hour).UnixMilli(), Message: "old"}
	fresh := &logger.Log{Level: logger.InfoLevel, Time: time.Now().UnixMilli(), Message: "fresh"}
	var body []byte
	for _, l := range []*logger.Log{old, fresh} {
		b, _ := json.Marshal(l)
		body = append(append(body, b...), '\n')
	}
	if err := os.WriteFile(path, body, 0600); err != nil {
		t.Fatal(err)
	}

	n, err := New(path, 1<<20, 24*3600, logger.InfoLevel)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Rotate(); err != nil {
		t.Fatal(err)
	}
	n.Stop()

	logs := readLogs(t, path)
	if len(logs) != 1 || logs[0].Message != "fresh" {
		t.Fatalf("unexpected logs after age rotation: %+v", logs)
	}
}

func TestRotateAfterStop(t *testing.T) {
	n, err := New(filepath.Join(t.TempDir(), "logs.json"), 1024, 0, logger.InfoLevel)
	if err != nil {
		t.Fatal(err)
	}
	n.Stop()
	if err := n.Rotate(); err == nil {
		t.Fatal("expected error rotating a stopped logger")
	}
	// must not block
	n.Log(logger.ErrorLevel, "late")
}
