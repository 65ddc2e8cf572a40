package auxiliary

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plumcave/tui/logger"
	"plumcave/tui/store"
)

func TestDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.toml")
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.ChunkSizeBytes()
	if err != nil || n != 16*1024 {
		t.Fatalf("chunk size = %d, %v", n, err)
	}
	if s.Transfer.Parallelism != 1 || s.Storage.Backend != "memory" {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if s.Entropy.Tick != 400*time.Millisecond {
		t.Fatalf("tick = %v", s.Entropy.Tick)
	}
	if s.Crypto.KDFMemoryKiB != 512 || s.Crypto.KDFThreads != 1 {
		t.Fatalf("crypto = %+v", s.Crypto)
	}
	if s.LogPath() != filepath.Join(filepath.Dir(path), "logs.json") {
		t.Fatalf("log path = %s", s.LogPath())
	}
}

func TestOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[log]
level = "debug"
max_size = "2MiB"

[transfer]
chunk_size = "64KiB"
parallelism = 4
timeout = "5s"

[storage]
backend = "S3"

[storage.s3]
bucket = "backups"
endpoint = "http://localhost:9000"
path_style = true
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := s.ChunkSizeBytes(); n != 64*1024 {
		t.Errorf("chunk size = %d", n)
	}
	if n, _ := s.LogMaxSizeBytes(); n != 2*1024*1024 {
		t.Errorf("log max size = %d", n)
	}
	if s.Transfer.Timeout != 5*time.Second || s.Transfer.Parallelism != 4 {
		t.Errorf("transfer = %+v", s.Transfer)
	}
	if s.Storage.Backend != "s3" || s.Storage.S3.Bucket != "backups" || !s.Storage.S3.PathStyle {
		t.Errorf("storage = %+v", s.Storage)
	}
	// untouched keys keep their defaults
	if s.Storage.S3.Region != "us-east-1" || logger.ParseLevel(s.Log.Level) != logger.DebugLevel {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestInvalid(t *testing.T) {
	tests := map[string]string{
		"backend":     "[storage]\nbackend = \"ftp\"\n",
		"parallelism": "[transfer]\nparallelism = 0\n",
		"chunk size":  "[transfer]\nchunk_size = \"lots\"\n",
		"syntax":      "[transfer\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestEnvPath(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv(ENV_CONFIG_PATH, want)
	got, err := DefaultPath()
	if err != nil || got != want {
		t.Fatalf("DefaultPath = %s, %v", got, err)
	}

	t.Setenv(ENV_CONFIG_PATH, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, _ = DefaultPath()
	if !strings.HasSuffix(got, filepath.Join("plumcave", "config.toml")) {
		t.Fatalf("DefaultPath = %s", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.Path = filepath.Join(t.TempDir(), "nested", "config.toml")
	s.Storage.Backend = "rest"
	s.Storage.Rest.BaseURL = "http://localhost:9090/api/"
	s.Transfer.Parallelism = 3
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := Load(s.Path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Storage.Rest.BaseURL != s.Storage.Rest.BaseURL || got.Transfer.Parallelism != 3 {
		t.Fatalf("round trip lost values: %+v", got)
	}
	if got.Transfer.Timeout != s.Transfer.Timeout {
		t.Fatalf("timeout %v != %v", got.Transfer.Timeout, s.Transfer.Timeout)
	}
}

func TestOpenMemoryStore(t *testing.T) {
	s := DefaultSettings()
	st, err := s.OpenStore(context.Background(), logger.Nop{})
	if err != nil {
		t.Fatal(err)
	}
	ref := store.Ref{Email: "a@b.com", BackupID: "proj1"}
	if err := st.PutChunk(context.Background(), ref, 0, "AAAA"); err != nil {
		t.Fatal(err)
	}
}
