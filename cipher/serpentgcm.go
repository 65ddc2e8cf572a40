package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"os"

	"plumcave/tui/consts/errs"

	"github.com/Picocrypt/serpent"
)

// SEALER_KEY_SIZE bytes of key: [0:32] serpent, [32:64] aes.
const SEALER_KEY_SIZE = 64

// SerpentGCM runs Serpent-256-CBC with PKCS#7 padding and then seals the
// result with AES-256-GCM.
//
// Layout: serpentIV(16) | gcmNonce(12) | gcm(cbc(pad(raw))).
type SerpentGCM struct {
}

func NewSerpentGCMCipher() *SerpentGCM {
	return &SerpentGCM{}
}

func randBytes(len int) (b []byte, err error) {
	b = make([]byte, len)
	if n, err := rand.Read(b); err != nil || n != len {
		return nil, fmt.Errorf("failed to read random bytes: %v", err)
	}
	return
}

func splitKey(key []byte) (serpentKey, aesKey []byte, err error) {
	if len(key) < SEALER_KEY_SIZE {
		return nil, nil, fmt.Errorf("%w: sealing key is %d bytes, want at least %d",
			errs.ErrInvalidInputLength, len(key), SEALER_KEY_SIZE)
	}
	return key[0:KEY_SIZE], key[KEY_SIZE:SEALER_KEY_SIZE], nil
}

func (s *SerpentGCM) Encrypt(key, raw []byte) (enc []byte, err error) {
	serpentKey, aesKey, err := splitKey(key)
	if err != nil {
		return nil, err
	}

	sBlock, err := serpent.NewCipher(serpentKey)
	if err != nil {
		return nil, fmt.Errorf("error creating serpent block : %v", err)
	}
	iv, err := randBytes(BLOCK_SIZE)
	if err != nil {
		return nil, err
	}
	padded := pad(raw, BLOCK_SIZE)
	cbc := make([]byte, len(padded))
	cipher.NewCBCEncrypter(sBlock, iv).CryptBlocks(cbc, padded)
	clear(padded)

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("error creating new cipher block : %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error wrapping cipher block in GCM : %v", err)
	}
	nonce, err := randBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}

	enc = make([]byte, 0, len(iv)+len(nonce)+len(cbc)+gcm.Overhead())
	enc = append(enc, iv...)
	enc = append(enc, nonce...)
	enc = gcm.Seal(enc, nonce, cbc, nil)
	return enc, nil
}

func (s *SerpentGCM) Decrypt(key, enc []byte) (raw []byte, err error) {
	serpentKey, aesKey, err := splitKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("error creating new cipher block : %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error wrapping cipher block in GCM : %v", err)
	}

	head := BLOCK_SIZE + gcm.NonceSize()
	if len(enc) < head+gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", errs.ErrInvalidInputLength)
	}
	iv, nonce := enc[:BLOCK_SIZE], enc[BLOCK_SIZE:head]

	cbc, err := gcm.Open(nil, nonce, enc[head:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open cipher block : %v", errs.ErrIntegrity, err)
	}
	if len(cbc)%BLOCK_SIZE != 0 || len(cbc) == 0 {
		return nil, fmt.Errorf("%w: cbc payload is not block aligned", errs.ErrInvalidInputLength)
	}

	sBlock, err := serpent.NewCipher(serpentKey)
	if err != nil {
		return nil, fmt.Errorf("error creating serpent block : %v", err)
	}
	padded := make([]byte, len(cbc))
	cipher.NewCBCDecrypter(sBlock, iv).CryptBlocks(padded, cbc)

	return unpad(padded, BLOCK_SIZE)
}

func (s *SerpentGCM) EncryptFile(key []byte, filePath string) (enc []byte, err error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	defer clear(raw)

	return s.Encrypt(key, raw)
}

func (s *SerpentGCM) DecryptFile(key, enc []byte, savePath string) (err error) {
	raw, err := s.Decrypt(key, enc)
	if err != nil {
		return err
	}
	defer clear(raw)

	return os.WriteFile(savePath, raw, 0644)
}

func (s *SerpentGCM) GetSHABytes(data []byte) (sha string) {
	sum := sha512.Sum512(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *SerpentGCM) GetHMACBytes(data, key []byte) (hash string, err error) {
	mac := hmac.New(sha512.New, key)
	if _, err = mac.Write(data); err != nil {
		return "", err
	}
	sum := mac.Sum(nil)

	return base64.StdEncoding.EncodeToString(sum), nil
}

// >>>

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	out := make([]byte, len(data)+n)
	copy(out, data)
	copy(out[len(data):], bytes.Repeat([]byte{byte(n)}, n))
	return out
}

func unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%w: bad padding", errs.ErrInvalidInputLength)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", errs.ErrIntegrity)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", errs.ErrIntegrity)
		}
	}
	return data[:len(data)-n], nil
}
