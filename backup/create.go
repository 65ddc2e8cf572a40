package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/store"
	"plumcave/tui/transfer"
	"plumcave/tui/utils"
)

const cleanupTimeout = 30 * time.Second

// Create seals the file at path and uploads it as a new backup. snapshot is a
// finalized entropy pool, it is wiped before Create returns.
func (s *Manager) Create(ctx context.Context, path, description string, snapshot []byte, progress Progress) (*Info, error) {
	defer clear(snapshot)
	if progress == nil {
		progress = func(string, float64) {}
	}
	if !s.core.Active() {
		return nil, errs.ErrNoSession
	}

	secrets, err := core.NewBackupSecrets(snapshot)
	if err != nil {
		return nil, err
	}
	defer secrets.Clear()

	progress("reserving id", 0)
	id, err := s.newID(ctx)
	if err != nil {
		return nil, err
	}
	ref := s.ref(id)

	progress("deriving keys", 0)
	iter := s.core.Iterations()
	keys, err := s.core.DeriveBackupKeys(secrets.RandomFileKey, core.DerivationInput{
		MetadataSalt:       secrets.MetadataSalt,
		FileSalt:           secrets.FileSalt,
		MetadataIterations: iter,
		FileIterations:     iter,
	})
	if err != nil {
		return nil, err
	}
	defer keys.Clear()

	progress("encrypting", 0)
	enc, err := s.cipher.EncryptFile(keys.FileKey, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt file: %w", err)
	}
	defer clear(enc)

	name := filepath.Base(path)
	rec, err := s.sealRecord(id, name, description, enc, keys, secrets)
	if err != nil {
		return nil, err
	}

	progress("uploading", 0)
	err = s.transfer.Upload(ctx, ref, enc, func(done float64) {
		progress("uploading", done)
	})
	if err != nil {
		s.cleanup(ref)
		return nil, fmt.Errorf("failed to upload: %w", err)
	}

	// The record goes last so listings never show a half written backup.
	if err := s.store.PutBackup(ctx, ref, rec); err != nil {
		s.cleanup(ref)
		return nil, fmt.Errorf("failed to store record: %w", err)
	}
	s.logger.Log(logger.InfoLevel, "created backup %s, %d bytes in %d chunks", id, len(enc),
		transfer.TotalChunks(int64(len(enc)), s.transfer.ChunkSize()))

	return &Info{
		ID:            id,
		Name:          name,
		Description:   description,
		EncryptedSize: rec.EncryptedSize,
		CreatedAt:     rec.CreatedAt,
		Readable:      true,
	}, nil
}

func (s *Manager) sealRecord(id, name, description string, enc []byte, keys *core.BackupKeys, secrets *core.BackupSecrets) (*store.BackupRecord, error) {
	encName, err := s.cipher.Encrypt(keys.FileNameKey(), []byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to seal name: %w", err)
	}
	var encDescription []byte
	if description != "" {
		if encDescription, err = s.cipher.Encrypt(keys.DescriptionKey(), []byte(description)); err != nil {
			return nil, fmt.Errorf("failed to seal description: %w", err)
		}
	}
	integrity, err := s.integrity(keys, name, description, enc)
	if err != nil {
		return nil, err
	}

	wrapSalt, err := utils.Rand(consts.SALT_SIZE)
	if err != nil {
		return nil, err
	}
	wrapped, err := s.core.WrapFileKey(secrets.RandomFileKey, wrapSalt)
	if err != nil {
		return nil, err
	}

	iter := s.core.Iterations()
	rec := &store.BackupRecord{
		ID:                 id,
		EncryptedSize:      int64(len(enc)),
		MetadataSalt:       utils.EncodeBase64(secrets.MetadataSalt),
		FileSalt:           utils.EncodeBase64(secrets.FileSalt),
		MetadataIterations: iter,
		FileIterations:     iter,
		WrapSalt:           utils.EncodeBase64(wrapSalt),
		WrappedFileKey:     utils.EncodeBase64(wrapped),
		EncName:            utils.EncodeBase64(encName),
		Integrity:          integrity,
		CreatedAt:          s.now().UTC(),
	}
	if encDescription != nil {
		rec.EncDescription = utils.EncodeBase64(encDescription)
	}
	return rec, nil
}

// newID draws ids until one is unused.
func (s *Manager) newID(ctx context.Context) (string, error) {
	for range maxIDAttempts {
		id, err := core.NewBackupID()
		if err != nil {
			return "", err
		}
		_, err = s.store.GetBackup(ctx, s.ref(id))
		if isNotFound(err) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check id: %w", err)
		}
	}
	return "", errors.New("no free backup id")
}

// cleanup runs detached from the caller's context, which may be the reason
// the upload failed.
func (s *Manager) cleanup(ref store.Ref) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.transfer.Delete(ctx, ref); err != nil {
		s.logger.Log(logger.WarnLevel, "failed to clean up %s: %v", ref.BackupID, err)
	}
}
