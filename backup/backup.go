// Package backup runs the backup lifecycle on top of the session core, the
// sealer and the chunk transfer: create, list, download, share, delete,
// fetching someone else's backup from a tag, and sending tags to other users
// through an ML-KEM sealed inbox.
package backup

import (
	"crypto/hmac"
	"errors"
	"strings"
	"time"

	"plumcave/tui/cipher"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/store"
	"plumcave/tui/transfer"
	"plumcave/tui/utils"
)

const maxIDAttempts = 8

// Info is the decrypted view of a BackupRecord.
type Info struct {
	ID            string
	Owner         string // set for backups opened from a tag
	Name          string
	Description   string
	EncryptedSize int64
	CreatedAt     time.Time
	Readable      bool // false when the name did not decrypt
}

// Progress reports a stage label and a fraction in [0, 1].
type Progress func(stage string, done float64)

type Manager struct {
	core     *core.Core
	cipher   cipher.Cipher
	store    store.Store
	transfer *transfer.Transfer
	logger   logger.Logger
	now      func() time.Time
}

func NewManager(c *core.Core, ciph cipher.Cipher, st store.Store, tr *transfer.Transfer, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop{}
	}
	return &Manager{
		core:     c,
		cipher:   ciph,
		store:    st,
		transfer: tr,
		logger:   log,
		now:      time.Now,
	}
}

func (s *Manager) ref(id string) store.Ref {
	return store.Ref{Email: s.core.Email(), BackupID: id}
}

// ownKeys rebuilds the keys of one of the session user's backups.
func (s *Manager) ownKeys(rec *store.BackupRecord) (*core.BackupKeys, error) {
	rfk, err := s.core.UnwrapFileKey(utils.DecodeBase64OrSentinel(rec.WrappedFileKey),
		utils.DecodeBase64OrSentinel(rec.WrapSalt))
	if err != nil {
		return nil, err
	}
	defer clear(rfk)

	return s.core.DeriveBackupKeys(rfk, core.DerivationInput{
		MetadataSalt:       utils.DecodeBase64(rec.MetadataSalt),
		FileSalt:           utils.DecodeBase64(rec.FileSalt),
		MetadataIterations: rec.MetadataIterations,
		FileIterations:     rec.FileIterations,
	})
}

// integrity binds name, description and the ciphertext digest under the
// integrity key.
func (s *Manager) integrity(keys *core.BackupKeys, name, description string, enc []byte) (string, error) {
	msg := strings.Join([]string{name, description, s.cipher.GetSHABytes(enc)}, "\n")
	return s.cipher.GetHMACBytes([]byte(msg), keys.IntegrityKey())
}

func (s *Manager) verify(keys *core.BackupKeys, rec *store.BackupRecord, name, description string, enc []byte) error {
	want, err := s.integrity(keys, name, description, enc)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(rec.Integrity)) {
		return errs.ErrIntegrity
	}
	return nil
}

// openMeta decrypts name and description. An empty description field stays
// empty.
func (s *Manager) openMeta(keys *core.BackupKeys, rec *store.BackupRecord) (name, description string, err error) {
	raw, err := s.cipher.Decrypt(keys.FileNameKey(), utils.DecodeBase64OrSentinel(rec.EncName))
	if err != nil {
		return "", "", err
	}
	name = string(raw)

	if rec.EncDescription != "" {
		raw, err = s.cipher.Decrypt(keys.DescriptionKey(), utils.DecodeBase64OrSentinel(rec.EncDescription))
		if err != nil {
			return "", "", err
		}
		description = string(raw)
	}
	return name, description, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
