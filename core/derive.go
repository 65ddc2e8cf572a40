package core

import (
	"fmt"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
)

// Split points of the master key and the random file key. The random key
// ranges overlap on [272:302], both derivations consume those bytes.
const (
	masterHeadEnd = 192
	randomHeadEnd = 302
	randomTailBeg = 272
)

// Metadata key sub ranges.
const (
	fileNameKeyEnd    = 224
	descriptionKeyEnd = 448
)

// BackupKeys are the two purpose keys of one backup.
type BackupKeys struct {
	MetadataKey []byte // 672 bytes
	FileKey     []byte // 416 bytes
}

// Valid reports whether both keys have their derived sizes. The sub key
// accessors below assume it.
func (k *BackupKeys) Valid() bool {
	return k != nil && len(k.MetadataKey) == consts.METADATA_KEY_SIZE && len(k.FileKey) == consts.FILE_KEY_SIZE
}

func (k *BackupKeys) FileNameKey() []byte {
	return k.MetadataKey[:fileNameKeyEnd]
}

func (k *BackupKeys) DescriptionKey() []byte {
	return k.MetadataKey[fileNameKeyEnd:descriptionKeyEnd]
}

func (k *BackupKeys) IntegrityKey() []byte {
	return k.MetadataKey[descriptionKeyEnd:]
}

func (k *BackupKeys) Clear() {
	clear(k.MetadataKey)
	clear(k.FileKey)
}

// DerivationInput holds the per backup values next to the two keys.
type DerivationInput struct {
	MetadataSalt       []byte
	FileSalt           []byte
	MetadataIterations uint32
	FileIterations     uint32
}

// DeriveKeys splits masterKey and randomFileKey and stretches each half into
// the metadata key and the file key.
//
//	metadataSeed = randomFileKey[272:] | masterKey[192:272]
//	fileSeed     = randomFileKey[0:302] | masterKey[0:192]
func DeriveKeys(kdf cipher.KeyDeriver, masterKey, randomFileKey []byte, in DerivationInput) (*BackupKeys, error) {
	if len(masterKey) != consts.MASTER_KEY_SIZE {
		return nil, fmt.Errorf("%w: master key is %d bytes, want %d",
			errs.ErrInvalidInputLength, len(masterKey), consts.MASTER_KEY_SIZE)
	}
	if len(randomFileKey) < consts.RANDOM_FILE_KEY_MIN {
		return nil, fmt.Errorf("%w: random file key is %d bytes, want at least %d",
			errs.ErrInvalidInputLength, len(randomFileKey), consts.RANDOM_FILE_KEY_MIN)
	}

	head, tail := masterKey[:masterHeadEnd], masterKey[masterHeadEnd:]
	rHead, rTail := randomFileKey[:randomHeadEnd], randomFileKey[randomTailBeg:]

	metadataSeed := concat(rTail, tail)
	defer clear(metadataSeed)
	fileSeed := concat(rHead, head)
	defer clear(fileSeed)

	metadataKey, err := kdf.Derive(metadataSeed, in.MetadataSalt, in.MetadataIterations, consts.METADATA_KEY_SIZE)
	if err != nil {
		return nil, wrapKDF(err)
	}
	fileKey, err := kdf.Derive(fileSeed, in.FileSalt, in.FileIterations, consts.FILE_KEY_SIZE)
	if err != nil {
		clear(metadataKey)
		return nil, wrapKDF(err)
	}

	return &BackupKeys{
		MetadataKey: metadataKey,
		FileKey:     fileKey,
	}, nil
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
