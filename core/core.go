package core

import (
	"errors"
	"fmt"
	"sync"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
)

// The idea here is that Core houses ephemeral secrets,
// and because you don't want to have 'Get' methods on those
// secrets, you need to have all that functionality within Core
// that would otherwise be performed by the service layer after
// 'Getting' those secrets.
type Core struct {
	mu     sync.RWMutex
	kdf    cipher.KeyDeriver
	cipher cipher.Cipher

	email      string
	masterKey  []byte // 272 bytes, the main session secret
	iterations uint32
}

func NewCore(kdf cipher.KeyDeriver, cipher cipher.Cipher) *Core {
	return &Core{
		kdf:    kdf,
		cipher: cipher,
	}
}

// >>>

// Login derives the master key and opens a session with it.
func (s *Core) Login(email string, pwd []byte) error {
	creds, err := DeriveMasterKey(s.kdf, email, pwd)
	if err != nil {
		return err
	}
	defer s.Clear(creds.MasterKey)

	return s.SetSession(email, creds.MasterKey, creds.Iterations)
}

func (s *Core) SetSession(email string, masterKey []byte, iterations uint32) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if len(masterKey) != consts.MASTER_KEY_SIZE {
		return fmt.Errorf("%w: master key is %d bytes", errs.ErrInvalidInputLength, len(masterKey))
	}
	if iterations == 0 {
		return errors.New("iterations cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clear(s.masterKey)
	s.masterKey = make([]byte, len(masterKey))
	copy(s.masterKey, masterKey)
	s.email = email
	s.iterations = iterations

	return nil
}

func (s *Core) DelSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clear(s.masterKey)
	s.masterKey = nil
	s.email = ""
	s.iterations = 0
}

func (s *Core) Clear(sensi []byte) {
	clear(sensi)
}

func (s *Core) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterKey != nil
}

// Email is not a secret, it addresses the storage paths.
func (s *Core) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Core) Iterations() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iterations
}

// >>>
// Derivations that use the master key.

func (s *Core) DeriveBackupKeys(randomFileKey []byte, in DerivationInput) (*BackupKeys, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.masterKey == nil {
		return nil, errs.ErrNoSession
	}
	return DeriveKeys(s.kdf, s.masterKey, randomFileKey, in)
}

// WrapFileKey seals the random file key so it can be stored next to the
// backup record. The wrapping key is stretched from the master key with a
// third of the session iterations.
func (s *Core) WrapFileKey(randomFileKey, wrapSalt []byte) (wrapped []byte, err error) {
	wkey, err := s.wrappingKey(wrapSalt)
	if err != nil {
		return nil, err
	}
	defer s.Clear(wkey)

	if wrapped, err = s.cipher.Encrypt(wkey, randomFileKey); err != nil {
		return nil, fmt.Errorf("failed to wrap: %w", err)
	}
	return wrapped, nil
}

func (s *Core) UnwrapFileKey(wrapped, wrapSalt []byte) (randomFileKey []byte, err error) {
	wkey, err := s.wrappingKey(wrapSalt)
	if err != nil {
		return nil, err
	}
	defer s.Clear(wkey)

	if randomFileKey, err = s.cipher.Decrypt(wkey, wrapped); err != nil {
		return nil, fmt.Errorf("failed to unwrap: %w", err)
	}
	return randomFileKey, nil
}

// SealPrivate seals data that only the session user may open again, such as
// the inbox keyring and the log of sent tags. It shares the file key
// wrapping scheme.
func (s *Core) SealPrivate(data, salt []byte) ([]byte, error) {
	return s.WrapFileKey(data, salt)
}

func (s *Core) OpenPrivate(sealed, salt []byte) ([]byte, error) {
	return s.UnwrapFileKey(sealed, salt)
}

func (s *Core) wrappingKey(salt []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.masterKey == nil {
		return nil, errs.ErrNoSession
	}
	iter := max(s.iterations/consts.WRAP_ITER_DIVISOR, 1)
	wkey, err := s.kdf.Derive(s.masterKey, salt, iter, cipher.SEALER_KEY_SIZE)
	if err != nil {
		return nil, wrapKDF(err)
	}
	return wkey, nil
}
