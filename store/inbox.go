package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

func PublicKeyKey(email string) string {
	return path.Join("data", email, "public", "mlkem-public-key")
}

func KeyringKey(email string) string {
	return path.Join("data", email, "private", "encrypted", "keyring", "mlkem-private-key")
}

func ReceivedPrefix(email string) string {
	return path.Join("data", email, "receivedBackups") + "/"
}

func SentPrefix(email string) string {
	return path.Join("data", email, "private", "encrypted", "sentBackupTags") + "/"
}

// PublicKeyDoc is the ML-KEM-1024 encapsulation key other users send to.
type PublicKeyDoc struct {
	PublicKey string `json:"publicKey"`
}

// KeyringDoc holds the decapsulation key seed sealed under the owner's
// master key.
type KeyringDoc struct {
	PrivateKey string `json:"privateKey"`
	Salt       string `json:"salt"`
}

// ReceivedDoc is a tag sealed for its recipient. ID is the document name.
type ReceivedDoc struct {
	ID              string `json:"-"`
	EncryptedTag    string `json:"encryptedTag"`
	MlkemCiphertext string `json:"mlkemCiphertext"`
	Sender          string `json:"sender,omitempty"`
}

// SentDoc is the sender's own sealed copy of a tag it sent.
type SentDoc struct {
	ID        string `json:"-"`
	Tag       string `json:"tag"`
	Salt      string `json:"salt"`
	Recipient string `json:"recipient"`
}

// validDocID keeps document ids to a single path segment.
func validDocID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

func (s *Documents) getJSON(ctx context.Context, key string, v any) error {
	body, err := s.objs.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Documents) putJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.objs.Put(ctx, key, body)
}

// listJSON decodes every document directly under prefix. Documents that
// vanish between list and get are skipped.
func listJSON[T any](ctx context.Context, s *Documents, prefix string, setID func(*T, string)) ([]*T, error) {
	keys, err := s.objs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	docs := make([]*T, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, prefix)
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		doc := new(T)
		err := s.getJSON(ctx, key, doc)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		setID(doc, id)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Documents) GetPublicKey(ctx context.Context, email string) (*PublicKeyDoc, error) {
	doc := new(PublicKeyDoc)
	if err := s.getJSON(ctx, PublicKeyKey(email), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Documents) PutPublicKey(ctx context.Context, email string, doc *PublicKeyDoc) error {
	return s.putJSON(ctx, PublicKeyKey(email), doc)
}

func (s *Documents) GetKeyring(ctx context.Context, email string) (*KeyringDoc, error) {
	doc := new(KeyringDoc)
	if err := s.getJSON(ctx, KeyringKey(email), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Documents) PutKeyring(ctx context.Context, email string, doc *KeyringDoc) error {
	return s.putJSON(ctx, KeyringKey(email), doc)
}

func (s *Documents) PutReceived(ctx context.Context, email string, doc *ReceivedDoc) error {
	if err := validDocID(doc.ID); err != nil {
		return err
	}
	return s.putJSON(ctx, ReceivedPrefix(email)+doc.ID, doc)
}

func (s *Documents) ListReceived(ctx context.Context, email string) ([]*ReceivedDoc, error) {
	return listJSON(ctx, s, ReceivedPrefix(email), func(d *ReceivedDoc, id string) { d.ID = id })
}

func (s *Documents) DeleteReceived(ctx context.Context, email, id string) error {
	if err := validDocID(id); err != nil {
		return err
	}
	return s.objs.Delete(ctx, ReceivedPrefix(email)+id)
}

func (s *Documents) PutSent(ctx context.Context, email string, doc *SentDoc) error {
	if err := validDocID(doc.ID); err != nil {
		return err
	}
	return s.putJSON(ctx, SentPrefix(email)+doc.ID, doc)
}

func (s *Documents) ListSent(ctx context.Context, email string) ([]*SentDoc, error) {
	return listJSON(ctx, s, SentPrefix(email), func(d *SentDoc, id string) { d.ID = id })
}
