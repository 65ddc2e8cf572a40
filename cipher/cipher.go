package cipher

// BlockCipher is the single block transform, 16 byte blocks and 32 byte keys.
// It carries no mode of operation.
type BlockCipher interface {
	EncryptBlock(block, key []byte) ([]byte, error)
	DecryptBlock(block, key []byte) ([]byte, error)
}

// KeyDeriver stretches a secret into outLen bytes. Same inputs, same output.
type KeyDeriver interface {
	Derive(secret, salt []byte, iterations, outLen uint32) ([]byte, error)
}

// Cipher seals whole payloads. Keys are at least SEALER_KEY_SIZE bytes,
// only the leading SEALER_KEY_SIZE bytes are used.
type Cipher interface {
	Encrypt(key, raw []byte) (enc []byte, err error)
	Decrypt(key, enc []byte) (raw []byte, err error)
	EncryptFile(key []byte, filePath string) (enc []byte, err error)
	DecryptFile(key, enc []byte, savePath string) (err error)

	GetSHABytes(data []byte) (sha string)
	GetHMACBytes(data, key []byte) (hash string, err error)
}
