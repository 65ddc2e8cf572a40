package backup

import (
	"context"
	"crypto/mlkem"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
	"strings"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/store"
	"plumcave/tui/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// hkdf info for the key that seals a tag under an ML-KEM shared secret.
var tagKeyInfo = []byte("plumcave sent tag")

// Received is one tag another user sent to the session user. Tag and the
// fields decoded from it are empty when the entry does not open.
type Received struct {
	ID       string
	Sender   string
	Tag      string
	Owner    string
	BackupID string
	Readable bool
}

// Sent is the session user's record of a tag it sent.
type Sent struct {
	ID        string
	Recipient string
	Tag       string
	BackupID  string
	Readable  bool
}

// EnsureKeyring makes sure the session user can receive tags: an ML-KEM-1024
// key pair whose seed is stored sealed under the master key and whose public
// half is published. An existing keyring is reused.
func (s *Manager) EnsureKeyring(ctx context.Context) error {
	dk, err := s.decapsulationKey(ctx)
	if err == nil {
		return s.publish(ctx, dk)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if dk, err = mlkem.GenerateKey1024(); err != nil {
		return fmt.Errorf("failed to generate keyring: %w", err)
	}
	seed := dk.Bytes()
	defer clear(seed)

	salt, err := utils.Rand(consts.SALT_SIZE)
	if err != nil {
		return err
	}
	sealed, err := s.core.SealPrivate(seed, salt)
	if err != nil {
		return err
	}
	// the private half goes first, a published key must always be openable
	doc := &store.KeyringDoc{PrivateKey: utils.EncodeBase64(sealed), Salt: utils.EncodeBase64(salt)}
	if err := s.store.PutKeyring(ctx, s.core.Email(), doc); err != nil {
		return fmt.Errorf("failed to store keyring: %w", err)
	}
	s.logger.Log(logger.InfoLevel, "created keyring for %s", s.core.Email())
	return s.publish(ctx, dk)
}

func (s *Manager) publish(ctx context.Context, dk *mlkem.DecapsulationKey1024) error {
	pub := utils.EncodeBase64(dk.EncapsulationKey().Bytes())
	doc, err := s.store.GetPublicKey(ctx, s.core.Email())
	if err == nil && doc.PublicKey == pub {
		return nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to get public key: %w", err)
	}
	if err := s.store.PutPublicKey(ctx, s.core.Email(), &store.PublicKeyDoc{PublicKey: pub}); err != nil {
		return fmt.Errorf("failed to publish public key: %w", err)
	}
	return nil
}

// decapsulationKey opens the stored keyring. store.ErrNotFound means the
// user has none yet.
func (s *Manager) decapsulationKey(ctx context.Context) (*mlkem.DecapsulationKey1024, error) {
	if !s.core.Active() {
		return nil, errs.ErrNoSession
	}
	doc, err := s.store.GetKeyring(ctx, s.core.Email())
	if err != nil {
		return nil, err
	}
	seed, err := s.core.OpenPrivate(utils.DecodeBase64OrSentinel(doc.PrivateKey), utils.DecodeBase64OrSentinel(doc.Salt))
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	defer clear(seed)

	dk, err := mlkem.NewDecapsulationKey1024(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: keyring seed: %v", errs.ErrIntegrity, err)
	}
	return dk, nil
}

func tagKey(shared []byte) ([]byte, error) {
	key := make([]byte, cipher.SEALER_KEY_SIZE)
	if _, err := io.ReadFull(hkdf.New(sha512.New, shared, nil, tagKeyInfo), key); err != nil {
		return nil, err
	}
	return key, nil
}

// SendTag seals the tag of backup id for recipient with their published
// ML-KEM key and drops it in their inbox. A sealed copy is kept in the
// sender's sent log.
func (s *Manager) SendTag(ctx context.Context, id, recipient string) error {
	if !s.core.Active() {
		return errs.ErrNoSession
	}
	recipient = strings.TrimSpace(recipient)
	if utils.VerifyEmailFormat(recipient) != "" || strings.ContainsAny(recipient, `/\`) {
		return fmt.Errorf("%w: %q is not an email", errs.ErrUnknownRecipient, recipient)
	}

	pubDoc, err := s.store.GetPublicKey(ctx, recipient)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", errs.ErrUnknownRecipient, recipient)
	}
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}
	ek, err := mlkem.NewEncapsulationKey1024(utils.DecodeBase64OrSentinel(pubDoc.PublicKey))
	if err != nil {
		return fmt.Errorf("%w: bad public key for %s: %v", errs.ErrUnknownRecipient, recipient, err)
	}

	tag, err := s.ShareTag(ctx, id)
	if err != nil {
		return err
	}
	raw := []byte(tag)
	defer clear(raw)

	shared, ct := ek.Encapsulate()
	key, err := tagKey(shared)
	clear(shared)
	if err != nil {
		return err
	}
	defer clear(key)

	enc, err := s.cipher.Encrypt(key, raw)
	if err != nil {
		return fmt.Errorf("failed to seal tag: %w", err)
	}
	received := &store.ReceivedDoc{
		ID:              uuid.NewString(),
		EncryptedTag:    utils.EncodeBase64(enc),
		MlkemCiphertext: utils.EncodeBase64(ct),
		Sender:          s.core.Email(),
	}
	if err := s.store.PutReceived(ctx, recipient, received); err != nil {
		return fmt.Errorf("failed to deliver tag: %w", err)
	}

	salt, err := utils.Rand(consts.SALT_SIZE)
	if err != nil {
		return err
	}
	own, err := s.core.SealPrivate(raw, salt)
	if err != nil {
		return err
	}
	sent := &store.SentDoc{
		ID:        uuid.NewString(),
		Tag:       utils.EncodeBase64(own),
		Salt:      utils.EncodeBase64(salt),
		Recipient: recipient,
	}
	if err := s.store.PutSent(ctx, s.core.Email(), sent); err != nil {
		// delivered already, only the sender's log is missing it
		s.logger.Log(logger.WarnLevel, "tag for %s sent but not logged: %v", id, err)
	}

	s.logger.Log(logger.InfoLevel, "sent tag of %s to %s", id, recipient)
	return nil
}

// ListReceived opens every entry of the session user's inbox. Entries that do
// not open are still listed, marked unreadable.
func (s *Manager) ListReceived(ctx context.Context) ([]*Received, error) {
	dk, err := s.decapsulationKey(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return []*Received{}, nil
	}
	if err != nil {
		return nil, err
	}

	docs, err := s.store.ListReceived(ctx, s.core.Email())
	if err != nil {
		return nil, err
	}

	out := make([]*Received, 0, len(docs))
	for _, doc := range docs {
		r := &Received{ID: doc.ID, Sender: doc.Sender}
		if tag, err := s.openReceived(dk, doc); err != nil {
			s.logger.Log(logger.WarnLevel, "received entry %s unreadable: %v", doc.ID, err)
		} else {
			r.Tag, r.Owner, r.BackupID, r.Readable = tag.Encode(), tag.Email, tag.BackupID, true
			tag.Clear()
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Manager) openReceived(dk *mlkem.DecapsulationKey1024, doc *store.ReceivedDoc) (*core.Tag, error) {
	shared, err := dk.Decapsulate(utils.DecodeBase64OrSentinel(doc.MlkemCiphertext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIntegrity, err)
	}
	key, err := tagKey(shared)
	clear(shared)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	raw, err := s.cipher.Decrypt(key, utils.DecodeBase64OrSentinel(doc.EncryptedTag))
	if err != nil {
		return nil, err
	}
	defer clear(raw)
	return core.DecodeTag(string(raw))
}

func (s *Manager) DeleteReceived(ctx context.Context, id string) error {
	if !s.core.Active() {
		return errs.ErrNoSession
	}
	if err := s.store.DeleteReceived(ctx, s.core.Email(), id); err != nil {
		return err
	}
	s.logger.Log(logger.InfoLevel, "deleted received entry %s", id)
	return nil
}

// ListSent opens the session user's sent log.
func (s *Manager) ListSent(ctx context.Context) ([]*Sent, error) {
	if !s.core.Active() {
		return nil, errs.ErrNoSession
	}
	docs, err := s.store.ListSent(ctx, s.core.Email())
	if err != nil {
		return nil, err
	}

	out := make([]*Sent, 0, len(docs))
	for _, doc := range docs {
		sent := &Sent{ID: doc.ID, Recipient: doc.Recipient}
		raw, err := s.core.OpenPrivate(utils.DecodeBase64OrSentinel(doc.Tag), utils.DecodeBase64OrSentinel(doc.Salt))
		if err == nil {
			var tag *core.Tag
			if tag, err = core.DecodeTag(string(raw)); err == nil {
				sent.Tag, sent.BackupID, sent.Readable = tag.Encode(), tag.BackupID, true
				tag.Clear()
			}
			clear(raw)
		}
		if err != nil {
			s.logger.Log(logger.WarnLevel, "sent entry %s unreadable: %v", doc.ID, err)
		}
		out = append(out, sent)
	}
	return out, nil
}

// PreviewShared opens the name and description of the backup a tag points
// at without downloading it. The payload integrity is not checked here.
func (s *Manager) PreviewShared(ctx context.Context, tagStr string) (*Info, error) {
	tag, err := core.DecodeTag(tagStr)
	if err != nil {
		return nil, err
	}
	defer tag.Clear()

	rec, err := s.store.GetBackup(ctx, store.Ref{Email: tag.Email, BackupID: tag.BackupID})
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	name, description, err := s.openMeta(tag.Keys(), rec)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	return &Info{
		ID:            rec.ID,
		Owner:         tag.Email,
		Name:          name,
		Description:   description,
		EncryptedSize: rec.EncryptedSize,
		CreatedAt:     rec.CreatedAt,
		Readable:      true,
	}, nil
}
