package interaction

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"plumcave/tui/backup"
	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/stages/auxiliary"
	"plumcave/tui/store"
	"plumcave/tui/store/memory"
	"plumcave/tui/transfer"
)

type recordingLogger struct {
	mu       sync.Mutex
	errors   int
	warnings int
}

func (r *recordingLogger) Log(level logger.Level, msg string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch level {
	case logger.ErrorLevel:
		r.errors++
	case logger.WarnLevel:
		r.warnings++
	}
}
func (r *recordingLogger) Rotate() error { return nil }
func (r *recordingLogger) Stop()         {}

func newService(t *testing.T) (*Service, *recordingLogger) {
	t.Helper()
	return newServiceOn(t, store.NewDocuments(memory.New()), "a@b.com")
}

// newServiceOn logs email in against docs, several users can share one store.
func newServiceOn(t *testing.T, docs *store.Documents, email string) (*Service, *recordingLogger) {
	t.Helper()
	ciph := cipher.NewSerpentGCMCipher()
	c := core.NewCore(cipher.NewArgon2With(64, 1), ciph)
	mk := make([]byte, consts.MASTER_KEY_SIZE)
	if _, err := rand.Read(mk); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSession(email, mk, 2); err != nil {
		t.Fatal(err)
	}

	tr := transfer.New(docs, nil, transfer.Options{ChunkSize: 512, Parallelism: 3})
	settings := auxiliary.DefaultSettings()
	settings.Entropy.Tick = 5 * time.Millisecond

	log := &recordingLogger{}
	return NewService(log, c, backup.NewManager(c, ciph, docs, tr, log), settings), log
}

func TestBackupLifecycle(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	t.Chdir(t.TempDir())

	body := make([]byte, 2000)
	if _, err := rand.Read(body); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, body, 0600); err != nil {
		t.Fatal(err)
	}

	pool, err := s.NewEntropyPool(nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 20 {
		if err := pool.MixPointer(i*3, i*7); err != nil {
			t.Fatal(err)
		}
	}
	info, err := s.CreateBackup(ctx, src, "weekly", pool, nil)
	if err != nil {
		t.Fatal(err)
	}

	// the pool is spent
	if _, err := s.CreateBackup(ctx, src, "", pool, nil); err == nil {
		t.Fatal("finalized pool reused")
	}

	list, err := s.ListBackups(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "notes.txt" {
		t.Fatalf("list = %v, %v", list, err)
	}

	path, err := s.DownloadBackup(ctx, info.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, body) {
		t.Fatalf("restored content differs: %v", err)
	}

	tag, err := s.ShareTag(ctx, info.ID)
	if err != nil || tag == "" {
		t.Fatalf("tag = %q, %v", tag, err)
	}

	if err := s.DeleteBackup(ctx, info.ID); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.ListBackups(ctx); len(list) != 0 {
		t.Fatalf("%d backups after delete", len(list))
	}
}

func TestErrorsAreLoggedAndDescribed(t *testing.T) {
	s, log := newService(t)

	_, err := s.DownloadBackup(context.Background(), "AAAAAAAAAA", nil)
	if err == nil || err.Error() != "Failed to download backup. Try Again!" {
		t.Fatalf("err = %v", err)
	}

	s.Logout()
	if s.Email() != "" {
		t.Fatal("session survived logout")
	}
	_, err = s.ListBackups(context.Background())
	if err == nil || err.Error() != "Session closed. Log in again." {
		t.Fatalf("err = %v", err)
	}
	if log.errors != 2 {
		t.Fatalf("%d errors logged, want 2", log.errors)
	}
}

type failingMixer struct{ err error }

func (f failingMixer) MixPointer(x, y int) error { return f.err }

func TestMixPointerLogsFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		warnings int
	}{
		{"ok", nil, 0},
		{"sealed", errs.ErrFinalized, 0},
		{"wrapped sealed", fmt.Errorf("pool: %w", errs.ErrFinalized), 0},
		{"broken", errors.New("failed to read random bytes"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, log := newService(t)
			s.MixPointer(failingMixer{tt.err}, 3, 4)
			if log.warnings != tt.warnings {
				t.Fatalf("%d warnings, want %d", log.warnings, tt.warnings)
			}
		})
	}

	// a real pool after sealing stays quiet
	s, log := newService(t)
	pool, err := s.NewEntropyPool(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Finalize(); err != nil {
		t.Fatal(err)
	}
	s.MixPointer(pool, 1, 2)
	if log.warnings != 0 {
		t.Fatalf("%d warnings after sealing", log.warnings)
	}
}

func TestSendAndReceiveTags(t *testing.T) {
	ctx := context.Background()
	t.Chdir(t.TempDir())
	docs := store.NewDocuments(memory.New())
	alice, _ := newServiceOn(t, docs, "a@b.com")
	bob, _ := newServiceOn(t, docs, "c@d.com")

	src := filepath.Join(t.TempDir(), "plan.txt")
	if err := os.WriteFile(src, []byte("the plan"), 0600); err != nil {
		t.Fatal(err)
	}
	pool, err := alice.NewEntropyPool(nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := alice.CreateBackup(ctx, src, "", pool, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = alice.SendTag(ctx, info.ID, "c@d.com")
	if err == nil || err.Error() != "No plumcave user with that email." {
		t.Fatalf("send before keyring err = %v", err)
	}

	if err := bob.manager.EnsureKeyring(ctx); err != nil {
		t.Fatal(err)
	}
	if err := alice.SendTag(ctx, info.ID, "c@d.com"); err != nil {
		t.Fatal(err)
	}

	inbox, err := bob.ListReceived(ctx)
	if err != nil || len(inbox) != 1 || !inbox[0].Readable || inbox[0].Sender != "a@b.com" {
		t.Fatalf("inbox = %+v, %v", inbox, err)
	}
	path, err := bob.FetchReceived(ctx, inbox[0].Tag, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "the plan" {
		t.Fatalf("fetched %q", got)
	}

	if err := bob.DeleteReceived(ctx, inbox[0].ID); err != nil {
		t.Fatal(err)
	}
	if inbox, _ := bob.ListReceived(ctx); len(inbox) != 0 {
		t.Fatalf("%d entries after delete", len(inbox))
	}
}
