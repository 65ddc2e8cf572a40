package core

import (
	"crypto/rand"
	"fmt"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
)

// BackupSecrets are generated once per backup from an entropy snapshot.
type BackupSecrets struct {
	RandomFileKey []byte
	MetadataSalt  []byte
	FileSalt      []byte
}

func (b *BackupSecrets) Clear() {
	clear(b.RandomFileKey)
	clear(b.MetadataSalt)
	clear(b.FileSalt)
}

// NewBackupSecrets carves the random file key and both salts out of a pool
// snapshot. Each salt is additionally XORed with fresh system randomness.
//
//	randomFileKey = pool[0:656]
//	metadataSalt  = pool[656:704] ^ rand(48)
//	fileSalt      = pool[704:752] ^ rand(48)
func NewBackupSecrets(snapshot []byte) (*BackupSecrets, error) {
	need := consts.RANDOM_FILE_KEY_SIZE + 2*consts.SALT_SIZE
	if len(snapshot) < need {
		return nil, fmt.Errorf("%w: snapshot is %d bytes, want at least %d",
			errs.ErrInvalidInputLength, len(snapshot), need)
	}

	rfk := make([]byte, consts.RANDOM_FILE_KEY_SIZE)
	copy(rfk, snapshot[:consts.RANDOM_FILE_KEY_SIZE])

	off := consts.RANDOM_FILE_KEY_SIZE
	metadataSalt, err := xorFresh(snapshot[off : off+consts.SALT_SIZE])
	if err != nil {
		return nil, err
	}
	off += consts.SALT_SIZE
	fileSalt, err := xorFresh(snapshot[off : off+consts.SALT_SIZE])
	if err != nil {
		return nil, err
	}

	return &BackupSecrets{
		RandomFileKey: rfk,
		MetadataSalt:  metadataSalt,
		FileSalt:      fileSalt,
	}, nil
}

func xorFresh(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %v", err)
	}
	for i := range out {
		out[i] ^= src[i]
	}
	return out, nil
}

// NewBackupID returns a 10 character id over [A-Za-z0-9].
func NewBackupID() (string, error) {
	alphabet := consts.BACKUP_ID_ALPHABET
	limit := byte(256 - 256%len(alphabet))

	id := make([]byte, 0, consts.BACKUP_ID_LENGTH)
	buf := make([]byte, consts.BACKUP_ID_LENGTH*2)
	for len(id) < consts.BACKUP_ID_LENGTH {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %v", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			id = append(id, alphabet[int(b)%len(alphabet)])
			if len(id) == consts.BACKUP_ID_LENGTH {
				break
			}
		}
	}
	return string(id), nil
}
