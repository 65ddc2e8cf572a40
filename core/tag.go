package core

import (
	"encoding/base64"
	"fmt"
	"strings"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/utils"
)

const tagFields = 4

// Tag carries everything needed to fetch and open one backup.
type Tag struct {
	Email       string
	BackupID    string
	MetadataKey []byte
	FileKey     []byte
}

// NewTag copies the keys, the caller keeps ownership of keys.
func NewTag(email, backupID string, keys *BackupKeys) *Tag {
	return &Tag{
		Email:       email,
		BackupID:    backupID,
		MetadataKey: append([]byte(nil), keys.MetadataKey...),
		FileKey:     append([]byte(nil), keys.FileKey...),
	}
}

// Encode renders base64(email),backupId,base64(metadataKey),base64(fileKey).
func (t *Tag) Encode() string {
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString([]byte(t.Email)),
		t.BackupID,
		base64.StdEncoding.EncodeToString(t.MetadataKey),
		base64.StdEncoding.EncodeToString(t.FileKey),
	}, ",")
}

func (t *Tag) Keys() *BackupKeys {
	return &BackupKeys{MetadataKey: t.MetadataKey, FileKey: t.FileKey}
}

func (t *Tag) Clear() {
	clear(t.MetadataKey)
	clear(t.FileKey)
}

// DecodeTag parses a tag produced by Encode. Surrounding whitespace from a
// paste is ignored.
func DecodeTag(s string) (*Tag, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) != tagFields {
		return nil, fmt.Errorf("%w: %d fields, want %d", errs.ErrMalformedTag, len(fields), tagFields)
	}

	email, err := base64.StdEncoding.DecodeString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", errs.ErrMalformedTag, err)
	}
	if msg := utils.VerifyEmailFormat(string(email)); msg != "" || strings.ContainsAny(string(email), `/\`) {
		return nil, fmt.Errorf("%w: bad email", errs.ErrMalformedTag)
	}
	if !ValidBackupID(fields[1]) {
		return nil, fmt.Errorf("%w: bad backup id", errs.ErrMalformedTag)
	}
	metadataKey, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, fmt.Errorf("%w: metadata key: %v", errs.ErrMalformedTag, err)
	}
	fileKey, err := base64.StdEncoding.DecodeString(fields[3])
	if err != nil {
		clear(metadataKey)
		return nil, fmt.Errorf("%w: file key: %v", errs.ErrMalformedTag, err)
	}
	if len(metadataKey) != consts.METADATA_KEY_SIZE || len(fileKey) != consts.FILE_KEY_SIZE {
		clear(metadataKey)
		clear(fileKey)
		return nil, fmt.Errorf("%w: keys are %d and %d bytes, want %d and %d", errs.ErrMalformedTag,
			len(metadataKey), len(fileKey), consts.METADATA_KEY_SIZE, consts.FILE_KEY_SIZE)
	}

	return &Tag{
		Email:       string(email),
		BackupID:    fields[1],
		MetadataKey: metadataKey,
		FileKey:     fileKey,
	}, nil
}

// ValidBackupID reports whether id is a non-empty run of backup id
// characters. Ids become storage path segments.
func ValidBackupID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(consts.BACKUP_ID_ALPHABET, r) {
			return false
		}
	}
	return true
}
