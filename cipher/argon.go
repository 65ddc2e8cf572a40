package cipher

import (
	"fmt"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"

	"golang.org/x/crypto/argon2"
)

type Argon2 struct {
	memory  uint32 // KiB
	threads uint8
}

func NewArgon2() *Argon2 {
	return &Argon2{
		memory:  consts.KDF_MEMORY_KIB,
		threads: consts.KDF_THREADS,
	}
}

// NewArgon2With is used where the memory cost comes from settings.
func NewArgon2With(memoryKiB uint32, threads uint8) *Argon2 {
	if memoryKiB == 0 {
		memoryKiB = consts.KDF_MEMORY_KIB
	}
	if threads == 0 {
		threads = consts.KDF_THREADS
	}
	return &Argon2{memory: memoryKiB, threads: threads}
}

// Derive runs Argon2id over secret and salt.
func (s *Argon2) Derive(secret, salt []byte, iterations, outLen uint32) ([]byte, error) {
	if iterations == 0 {
		return nil, fmt.Errorf("%w: iterations must be positive", errs.ErrKeyDerivation)
	}
	if outLen == 0 {
		return nil, fmt.Errorf("%w: output length must be positive", errs.ErrKeyDerivation)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", errs.ErrKeyDerivation)
	}
	return argon2.IDKey(secret, salt, iterations, s.memory, s.threads, outLen), nil
}
