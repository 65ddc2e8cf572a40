package backup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/store"
)

// List returns the session user's backups, newest first. Backups whose keys
// or name fail to open are still listed, marked unreadable.
func (s *Manager) List(ctx context.Context) ([]*Info, error) {
	if !s.core.Active() {
		return nil, errs.ErrNoSession
	}

	recs, err := s.store.ListBackups(ctx, s.core.Email())
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := &Info{
			ID:            rec.ID,
			Name:          rec.ID,
			EncryptedSize: rec.EncryptedSize,
			CreatedAt:     rec.CreatedAt,
		}
		if name, desc, err := s.describe(rec); err != nil {
			s.logger.Log(logger.WarnLevel, "backup %s unreadable: %v", rec.ID, err)
		} else {
			info.Name, info.Description, info.Readable = name, desc, true
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b *Info) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return infos, nil
}

func (s *Manager) describe(rec *store.BackupRecord) (string, string, error) {
	keys, err := s.ownKeys(rec)
	if err != nil {
		return "", "", err
	}
	defer keys.Clear()
	return s.openMeta(keys, rec)
}

// Download restores one of the session user's backups into dir and returns
// the written path.
func (s *Manager) Download(ctx context.Context, id, dir string, progress Progress) (string, error) {
	if !s.core.Active() {
		return "", errs.ErrNoSession
	}
	ref := s.ref(id)

	rec, err := s.store.GetBackup(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to get record: %w", err)
	}
	keys, err := s.ownKeys(rec)
	if err != nil {
		return "", err
	}
	defer keys.Clear()

	return s.restore(ctx, ref, rec, keys, dir, progress)
}

// ShareTag encodes the keys of one backup into a tag another client can
// fetch with.
func (s *Manager) ShareTag(ctx context.Context, id string) (string, error) {
	if !s.core.Active() {
		return "", errs.ErrNoSession
	}
	ref := s.ref(id)

	rec, err := s.store.GetBackup(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to get record: %w", err)
	}
	keys, err := s.ownKeys(rec)
	if err != nil {
		return "", err
	}
	defer keys.Clear()

	tag := core.NewTag(ref.Email, ref.BackupID, keys)
	defer tag.Clear()
	return tag.Encode(), nil
}

func (s *Manager) Delete(ctx context.Context, id string) error {
	if !s.core.Active() {
		return errs.ErrNoSession
	}
	if err := s.transfer.Delete(ctx, s.ref(id)); err != nil {
		return err
	}
	s.logger.Log(logger.InfoLevel, "deleted backup %s", id)
	return nil
}

// FetchShared restores the backup a tag points at. It needs no session.
func (s *Manager) FetchShared(ctx context.Context, tagStr, dir string, progress Progress) (string, error) {
	tag, err := core.DecodeTag(tagStr)
	if err != nil {
		return "", err
	}
	defer tag.Clear()

	ref := store.Ref{Email: tag.Email, BackupID: tag.BackupID}
	rec, err := s.store.GetBackup(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to get record: %w", err)
	}
	return s.restore(ctx, ref, rec, tag.Keys(), dir, progress)
}

func (s *Manager) restore(ctx context.Context, ref store.Ref, rec *store.BackupRecord, keys *core.BackupKeys, dir string, progress Progress) (string, error) {
	if !keys.Valid() {
		return "", fmt.Errorf("%w: wrong key sizes", errs.ErrMalformedTag)
	}
	if progress == nil {
		progress = func(string, float64) {}
	}

	name, description, err := s.openMeta(keys, rec)
	if err != nil {
		return "", fmt.Errorf("failed to open metadata: %w", err)
	}

	progress("downloading", 0)
	enc, err := s.transfer.Download(ctx, ref, rec.EncryptedSize, func(done float64) {
		progress("downloading", done)
	})
	if err != nil {
		return "", err
	}
	defer clear(enc)

	progress("verifying", 1)
	if err := s.verify(keys, rec, name, description, enc); err != nil {
		return "", err
	}

	savePath, err := freePath(dir, name, ref.BackupID)
	if err != nil {
		return "", err
	}
	progress("decrypting", 1)
	if err := s.cipher.DecryptFile(keys.FileKey, enc, savePath); err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	s.logger.Log(logger.InfoLevel, "restored backup %s to %s", ref.BackupID, savePath)

	return savePath, nil
}

// freePath keeps only the base of name and never overwrites, "a.txt" becomes
// "a (1).txt" when taken.
func freePath(dir, name, fallback string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == "" {
		base = fallback
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(dir, base)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
