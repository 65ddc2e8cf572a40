package cipher

import (
	"fmt"

	"plumcave/tui/consts/errs"

	"github.com/Picocrypt/serpent"
)

const (
	BLOCK_SIZE = 16
	KEY_SIZE   = 32
)

// Serpent is the Serpent-256 single block primitive.
type Serpent struct{}

func NewSerpent() *Serpent {
	return &Serpent{}
}

func (s *Serpent) EncryptBlock(block, key []byte) ([]byte, error) {
	return EncryptBlock(block, key)
}

func (s *Serpent) DecryptBlock(block, key []byte) ([]byte, error) {
	return DecryptBlock(block, key)
}

// EncryptBlock encrypts exactly one 16 byte block under a 32 byte key.
func EncryptBlock(block, key []byte) ([]byte, error) {
	if err := checkSizes(block, key); err != nil {
		return nil, err
	}
	c, err := serpent.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init serpent: %w", err)
	}
	out := make([]byte, BLOCK_SIZE)
	c.Encrypt(out, block)
	return out, nil
}

// DecryptBlock is the inverse of EncryptBlock.
func DecryptBlock(block, key []byte) ([]byte, error) {
	if err := checkSizes(block, key); err != nil {
		return nil, err
	}
	c, err := serpent.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init serpent: %w", err)
	}
	out := make([]byte, BLOCK_SIZE)
	c.Decrypt(out, block)
	return out, nil
}

func checkSizes(block, key []byte) error {
	if len(block) != BLOCK_SIZE {
		return fmt.Errorf("%w: block is %d bytes, want %d", errs.ErrInvalidInputLength, len(block), BLOCK_SIZE)
	}
	if len(key) != KEY_SIZE {
		return fmt.Errorf("%w: key is %d bytes, want %d", errs.ErrInvalidInputLength, len(key), KEY_SIZE)
	}
	return nil
}
