package backup

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/store"
	"plumcave/tui/store/memory"
	"plumcave/tui/transfer"
)

type fixture struct {
	mem     *memory.Memory
	docs    *store.Documents
	manager *Manager
	core    *core.Core
	dir     string
}

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return b
}

// newFixture logs a@b.com in with a random master key. Argon2 runs with
// 64 KiB and two passes to keep tests quick.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	docs := store.NewDocuments(mem)
	ciph := cipher.NewSerpentGCMCipher()
	c := core.NewCore(cipher.NewArgon2With(64, 1), ciph)
	if err := c.SetSession("a@b.com", randBytes(t, consts.MASTER_KEY_SIZE), 2); err != nil {
		t.Fatal(err)
	}
	tr := transfer.New(docs, nil, transfer.Options{ChunkSize: 1024, Parallelism: 2})
	return &fixture{
		mem:     mem,
		docs:    docs,
		manager: NewManager(c, ciph, docs, tr, nil),
		core:    c,
		dir:     t.TempDir(),
	}
}

func (f *fixture) writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(src, body, 0600); err != nil {
		t.Fatal(err)
	}
	return src
}

func (f *fixture) create(t *testing.T, name string, body []byte) *Info {
	t.Helper()
	info, err := f.manager.Create(context.Background(), f.writeFile(t, name, body), "notes for "+name,
		randBytes(t, consts.ENTROPY_POOL_SIZE), nil)
	if err != nil {
		t.Fatal(err)
	}
	return info
}

func TestCreateListDownload(t *testing.T) {
	f := newFixture(t)
	body := randBytes(t, 5000)

	var stages []string
	snapshot := randBytes(t, consts.ENTROPY_POOL_SIZE)
	info, err := f.manager.Create(context.Background(), f.writeFile(t, "report.pdf", body), "q3",
		snapshot, func(stage string, done float64) {
			if len(stages) == 0 || stages[len(stages)-1] != stage {
				stages = append(stages, stage)
			}
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(info.ID) != consts.BACKUP_ID_LENGTH || info.Name != "report.pdf" {
		t.Fatalf("unexpected info %+v", info)
	}
	if !bytes.Equal(snapshot, make([]byte, len(snapshot))) {
		t.Fatal("entropy snapshot not wiped")
	}
	if strings.Join(stages, ",") != "reserving id,deriving keys,encrypting,uploading" {
		t.Fatalf("stages %v", stages)
	}

	list, err := f.manager.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "report.pdf" || list[0].Description != "q3" || !list[0].Readable {
		t.Fatalf("unexpected list %+v", list)
	}

	path, err := f.manager.Download(context.Background(), info.ID, f.dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, body) {
		t.Fatalf("restored file differs: %v", err)
	}

	// a second restore must not overwrite the first
	again, err := f.manager.Download(context.Background(), info.ID, f.dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(again) != "report (1).pdf" {
		t.Fatalf("second restore written to %s", again)
	}
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old.txt", "new.txt"} {
		f.manager.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		f.create(t, name, []byte(name))
	}

	list, err := f.manager.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "new.txt" || list[1].Name != "old.txt" {
		t.Fatalf("order %v, %v", list[0].Name, list[1].Name)
	}
}

func TestShareAndFetch(t *testing.T) {
	f := newFixture(t)
	body := randBytes(t, 3000)
	info := f.create(t, "photo.jpg", body)

	tag, err := f.manager.ShareTag(context.Background(), info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(tag, "YUBiLmNvbQ==,"+info.ID+",") {
		t.Fatalf("tag %q", tag)
	}

	// a separate client without any session
	ciph := cipher.NewSerpentGCMCipher()
	other := NewManager(core.NewCore(cipher.NewArgon2With(64, 1), ciph), ciph, f.docs,
		transfer.New(f.docs, nil, transfer.Options{ChunkSize: 1024}), nil)

	path, err := other.FetchShared(context.Background(), tag, f.dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, body) {
		t.Fatal("fetched file differs")
	}

	if _, err := other.FetchShared(context.Background(), "not,a,tag", f.dir, nil); !errors.Is(err, errs.ErrMalformedTag) {
		t.Fatalf("err = %v", err)
	}
}

func TestFetchSharedWrongKeySizes(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "notes.txt", []byte("hello"))

	for name, tag := range map[string]*core.Tag{
		"short":      {Email: "a@b.com", BackupID: info.ID, MetadataKey: make([]byte, 100), FileKey: make([]byte, 100)},
		"short file": {Email: "a@b.com", BackupID: info.ID, MetadataKey: make([]byte, consts.METADATA_KEY_SIZE), FileKey: make([]byte, 10)},
	} {
		if _, err := f.manager.FetchShared(context.Background(), tag.Encode(), f.dir, nil); !errors.Is(err, errs.ErrMalformedTag) {
			t.Errorf("%s: err = %v, want ErrMalformedTag", name, err)
		}
	}

	rec, err := f.docs.GetBackup(context.Background(), f.manager.ref(info.ID))
	if err != nil {
		t.Fatal(err)
	}
	short := &core.BackupKeys{MetadataKey: make([]byte, 10), FileKey: make([]byte, consts.FILE_KEY_SIZE)}
	if _, err := f.manager.restore(context.Background(), f.manager.ref(info.ID), rec, short, f.dir, nil); !errors.Is(err, errs.ErrMalformedTag) {
		t.Fatalf("restore err = %v", err)
	}
}

func TestTamperedChunk(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "a.bin", randBytes(t, 4000))

	ref := store.Ref{Email: "a@b.com", BackupID: info.ID}
	if err := f.docs.PutChunk(context.Background(), ref, 1, "AAAAAAAAAAAAAAAAAAAAAAAAAAAA"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.manager.Download(context.Background(), info.ID, f.dir, nil); !errors.Is(err, errs.ErrIntegrity) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(f.dir)
	if len(entries) != 0 {
		t.Fatal("file written despite failed integrity check")
	}
}

func TestMissingChunk(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "a.bin", randBytes(t, 4000))

	ref := store.Ref{Email: "a@b.com", BackupID: info.ID}
	if err := f.docs.DeleteChunk(context.Background(), ref, "2"); err != nil {
		t.Fatal(err)
	}
	_, err := f.manager.Download(context.Background(), info.ID, f.dir, nil)
	var missing *errs.MissingChunkError
	if !errors.As(err, &missing) || missing.Index != 2 {
		t.Fatalf("err = %v", err)
	}
}

func TestUnreadableRecordStillListed(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "a.bin", []byte("payload"))

	ref := store.Ref{Email: "a@b.com", BackupID: info.ID}
	rec, err := f.docs.GetBackup(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	rec.WrappedFileKey = "%%garbage"
	if err := f.docs.PutBackup(context.Background(), ref, rec); err != nil {
		t.Fatal(err)
	}

	list, err := f.manager.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Readable || list[0].Name != info.ID {
		t.Fatalf("unexpected list %+v", list[0])
	}
}

func TestDeleteBackup(t *testing.T) {
	f := newFixture(t)
	info := f.create(t, "a.bin", randBytes(t, 4000))
	if f.mem.Len() != 5 {
		t.Fatalf("%d objects, want 4 chunks and a record", f.mem.Len())
	}

	if err := f.manager.Delete(context.Background(), info.ID); err != nil {
		t.Fatal(err)
	}
	if f.mem.Len() != 0 {
		t.Fatalf("%d objects left", f.mem.Len())
	}
}

func TestNoSession(t *testing.T) {
	f := newFixture(t)
	f.core.DelSession()

	if _, err := f.manager.List(context.Background()); !errors.Is(err, errs.ErrNoSession) {
		t.Fatalf("List err = %v", err)
	}
	_, err := f.manager.Create(context.Background(), f.writeFile(t, "x", []byte("x")), "",
		randBytes(t, consts.ENTROPY_POOL_SIZE), nil)
	if !errors.Is(err, errs.ErrNoSession) {
		t.Fatalf("Create err = %v", err)
	}
}

func TestFreePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"b.txt", "b.txt"},
		{"a.txt", "a (1).txt"},
		{"../../etc/passwd", "passwd"},
		{"", "fallback"},
		{"/", "fallback"},
	}
	for _, tt := range tests {
		got, err := freePath(dir, tt.name, "fallback")
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(got) != tt.want || filepath.Dir(got) != dir {
			t.Errorf("freePath(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
