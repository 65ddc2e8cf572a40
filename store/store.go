// Package store is the boundary to the remote document storage. Records live
// under data/{email}/backups/{backupId}/, chunks under .../chunks/{index}.
// Tags sent between users live under data/{email}/receivedBackups/ and
// data/{email}/private/encrypted/sentBackupTags/.
package store

import (
	"context"
	"errors"
	"path"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Store is what the transfer protocol and the services talk to.
type Store interface {
	GetChunk(ctx context.Context, ref Ref, index int) (*ChunkDoc, error)
	ListChunks(ctx context.Context, ref Ref) ([]*ChunkDoc, error)
	PutChunk(ctx context.Context, ref Ref, index int, data string) error
	DeleteChunk(ctx context.Context, ref Ref, id string) error

	GetBackup(ctx context.Context, ref Ref) (*BackupRecord, error)
	PutBackup(ctx context.Context, ref Ref, rec *BackupRecord) error
	ListBackups(ctx context.Context, email string) ([]*BackupRecord, error)
	DeleteBackup(ctx context.Context, ref Ref) error

	GetPublicKey(ctx context.Context, email string) (*PublicKeyDoc, error)
	PutPublicKey(ctx context.Context, email string, doc *PublicKeyDoc) error
	GetKeyring(ctx context.Context, email string) (*KeyringDoc, error)
	PutKeyring(ctx context.Context, email string, doc *KeyringDoc) error

	PutReceived(ctx context.Context, email string, doc *ReceivedDoc) error
	ListReceived(ctx context.Context, email string) ([]*ReceivedDoc, error)
	DeleteReceived(ctx context.Context, email, id string) error
	PutSent(ctx context.Context, email string, doc *SentDoc) error
	ListSent(ctx context.Context, email string) ([]*SentDoc, error)
}

// Objects is a flat key/value backend. List returns keys under prefix in the
// order the backend yields them.
type Objects interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// >>>

type Ref struct {
	Email    string
	BackupID string
}

func BackupsPrefix(email string) string {
	return path.Join("data", email, "backups") + "/"
}

func (r Ref) Root() string {
	return path.Join("data", r.Email, "backups", r.BackupID)
}

func (r Ref) RecordKey() string {
	return r.Root() + "/" + recordName
}

func (r Ref) ChunksPrefix() string {
	return r.Root() + "/chunks/"
}

func (r Ref) ChunkKey(index int) string {
	return r.ChunksPrefix() + strconv.Itoa(index)
}

const recordName = "backup"

// >>>

// ChunkDoc is one stored chunk document. Data is nil when the document has
// no data field.
type ChunkDoc struct {
	ID    string
	Index int // -1 when ID is not a decimal index
	Data  *string
}

func chunkIndex(id string) int {
	i, err := strconv.Atoi(id)
	if err != nil || i < 0 {
		return -1
	}
	return i
}

func lastSegment(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

// BackupRecord is the per backup metadata document. Binary fields are base64.
type BackupRecord struct {
	ID                 string    `json:"id"`
	EncryptedSize      int64     `json:"encryptedSize"`
	MetadataSalt       string    `json:"metadataSalt"`
	FileSalt           string    `json:"fileSalt"`
	MetadataIterations uint32    `json:"metadataIterations"`
	FileIterations     uint32    `json:"fileIterations"`
	WrapSalt           string    `json:"wrapSalt"`
	WrappedFileKey     string    `json:"wrappedFileKey"`
	EncName            string    `json:"encName"`
	EncDescription     string    `json:"encDescription,omitempty"`
	Integrity          string    `json:"integrity"`
	CreatedAt          time.Time `json:"createdAt"`
}
