package core

import (
	"crypto/sha512"
	"errors"
	"fmt"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"

	"github.com/jzelinskie/whirlpool"
)

// Credentials is the outcome of a login derivation.
type Credentials struct {
	MasterKey  []byte
	Iterations uint32
}

// DeriveMasterKey turns email and password into the 272 byte master key.
//
//	emailSalt  = whirlpool(sha512(email))
//	hashedPwd  = whirlpool(sha512(password))
//	iterations = 1100 + sum(hashedPwd) % 301
//	derived    = kdf(password, emailSalt ^ hashedPwd, iterations, 336)
//	masterKey  = derived[64:]
func DeriveMasterKey(kdf cipher.KeyDeriver, email string, pwd []byte) (*Credentials, error) {
	if email == "" || len(pwd) == 0 {
		return nil, fmt.Errorf("%w: email or password is empty", errs.ErrKeyDerivation)
	}

	emailSalt := whirlpoolOfSHA512([]byte(email))
	hashedPwd := whirlpoolOfSHA512(pwd)
	defer clear(hashedPwd)

	sum := 0
	for _, b := range hashedPwd {
		sum += int(b)
	}
	iterations := uint32(consts.LOGIN_ITER_FLOOR + sum%consts.LOGIN_ITER_SPAN)

	salt := make([]byte, min(len(emailSalt), len(hashedPwd)))
	for i := range salt {
		salt[i] = emailSalt[i] ^ hashedPwd[i]
	}
	defer clear(salt)

	derived, err := kdf.Derive(pwd, salt, iterations, consts.LOGIN_DERIVED_SIZE)
	if err != nil {
		return nil, wrapKDF(err)
	}
	defer clear(derived)
	if len(derived) != consts.LOGIN_DERIVED_SIZE {
		return nil, fmt.Errorf("%w: kdf returned %d bytes", errs.ErrKeyDerivation, len(derived))
	}

	masterKey := make([]byte, consts.MASTER_KEY_SIZE)
	copy(masterKey, derived[consts.LOGIN_DERIVED_SKIP:])

	return &Credentials{
		MasterKey:  masterKey,
		Iterations: iterations,
	}, nil
}

func whirlpoolOfSHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	w := whirlpool.New()
	w.Write(sum[:])
	return w.Sum(nil)
}

func wrapKDF(err error) error {
	if errors.Is(err, errs.ErrKeyDerivation) {
		return err
	}
	return fmt.Errorf("%w: %v", errs.ErrKeyDerivation, err)
}
