package entropy

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/jzelinskie/whirlpool"
)

type HashKind int

const (
	SHA256 HashKind = iota
	SHA384
	SHA512
	Whirlpool
)

// hashTable is what the pointer mixer picks from. Whirlpool is listed twice.
var hashTable = [...]HashKind{SHA256, SHA384, SHA512, Whirlpool, Whirlpool}

func (k HashKind) New() hash.Hash {
	switch k {
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	case Whirlpool:
		return whirlpool.New()
	default:
		panic("entropy: unknown hash kind")
	}
}

func (k HashKind) Sum(data []byte) []byte {
	h := k.New()
	h.Write(data)
	return h.Sum(nil)
}

func (k HashKind) String() string {
	switch k {
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	case Whirlpool:
		return "Whirlpool"
	default:
		return "unknown"
	}
}
