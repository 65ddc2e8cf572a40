package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"plumcave/tui/cipher"
	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
)

type kdfCall struct {
	secret, salt []byte
	iterations   uint32
	outLen       uint32
}

// fakeKDF expands sha256(secret|salt|iterations|counter). It records every call.
type fakeKDF struct {
	calls []kdfCall
	err   error
}

func (f *fakeKDF) Derive(secret, salt []byte, iterations, outLen uint32) ([]byte, error) {
	f.calls = append(f.calls, kdfCall{
		secret:     append([]byte(nil), secret...),
		salt:       append([]byte(nil), salt...),
		iterations: iterations,
		outLen:     outLen,
	})
	if f.err != nil {
		return nil, f.err
	}
	out := make([]byte, 0, outLen+sha256.Size)
	var ctr uint32
	for uint32(len(out)) < outLen {
		h := sha256.New()
		h.Write(secret)
		h.Write(salt)
		binary.Write(h, binary.BigEndian, iterations)
		binary.Write(h, binary.BigEndian, ctr)
		out = h.Sum(out)
		ctr++
	}
	return out[:outLen], nil
}

func seq(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func testInput() DerivationInput {
	return DerivationInput{
		MetadataSalt:       bytes.Repeat([]byte{0xAA}, consts.SALT_SIZE),
		FileSalt:           bytes.Repeat([]byte{0xBB}, consts.SALT_SIZE),
		MetadataIterations: 7,
		FileIterations:     9,
	}
}

func TestDeriveKeysSlicing(t *testing.T) {
	kdf := &fakeKDF{}
	mk := seq(consts.MASTER_KEY_SIZE, 0)
	rfk := seq(consts.RANDOM_FILE_KEY_SIZE, 100)
	in := testInput()

	keys, err := DeriveKeys(kdf, mk, rfk, in)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	if len(keys.MetadataKey) != consts.METADATA_KEY_SIZE {
		t.Errorf("metadata key is %d bytes", len(keys.MetadataKey))
	}
	if len(keys.FileKey) != consts.FILE_KEY_SIZE {
		t.Errorf("file key is %d bytes", len(keys.FileKey))
	}
	if len(kdf.calls) != 2 {
		t.Fatalf("kdf called %d times, want 2", len(kdf.calls))
	}

	wantMeta := append(append([]byte(nil), rfk[272:]...), mk[192:272]...)
	wantFile := append(append([]byte(nil), rfk[0:302]...), mk[0:192]...)

	meta, file := kdf.calls[0], kdf.calls[1]
	if !bytes.Equal(meta.secret, wantMeta) {
		t.Errorf("metadata seed mismatch")
	}
	if !bytes.Equal(meta.salt, in.MetadataSalt) || meta.iterations != 7 || meta.outLen != 672 {
		t.Errorf("metadata call = salt %x iter %d len %d", meta.salt[:2], meta.iterations, meta.outLen)
	}
	if !bytes.Equal(file.secret, wantFile) {
		t.Errorf("file seed mismatch")
	}
	if !bytes.Equal(file.salt, in.FileSalt) || file.iterations != 9 || file.outLen != 416 {
		t.Errorf("file call = salt %x iter %d len %d", file.salt[:2], file.iterations, file.outLen)
	}

	// bytes 272..301 of the random key feed both seeds
	overlap := rfk[272:302]
	if !bytes.Equal(meta.secret[:30], overlap) || !bytes.Equal(file.secret[272:302], overlap) {
		t.Errorf("overlapping range not shared")
	}
}

func TestDeriveKeysMinimumRandomKey(t *testing.T) {
	kdf := &fakeKDF{}
	mk := seq(consts.MASTER_KEY_SIZE, 0)
	rfk := seq(consts.RANDOM_FILE_KEY_MIN, 1)

	if _, err := DeriveKeys(kdf, mk, rfk, testInput()); err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	// rTail is 30 bytes, tail is 80
	if got := len(kdf.calls[0].secret); got != 110 {
		t.Errorf("metadata seed is %d bytes, want 110", got)
	}
	if got := len(kdf.calls[1].secret); got != 494 {
		t.Errorf("file seed is %d bytes, want 494", got)
	}
}

func TestDeriveKeysDeterministic(t *testing.T) {
	kdf := cipher.NewArgon2With(64, 1)
	mk := seq(consts.MASTER_KEY_SIZE, 3)
	rfk := seq(consts.RANDOM_FILE_KEY_SIZE, 5)
	in := testInput()
	in.MetadataIterations, in.FileIterations = 1, 1

	a, err := DeriveKeys(kdf, mk, rfk, in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKeys(kdf, mk, rfk, in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.MetadataKey, b.MetadataKey) || !bytes.Equal(a.FileKey, b.FileKey) {
		t.Fatalf("derivation is not deterministic")
	}

	rfk[0] ^= 1
	c, err := DeriveKeys(kdf, mk, rfk, in)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.FileKey, c.FileKey) {
		t.Fatalf("file key did not change with the random key")
	}
	if !bytes.Equal(a.MetadataKey, c.MetadataKey) {
		t.Fatalf("metadata key changed although its seed did not")
	}
}

func TestDeriveKeysInvalidLengths(t *testing.T) {
	kdf := &fakeKDF{}
	cases := []struct {
		name string
		mk   int
		rfk  int
	}{
		{"short master", 271, 656},
		{"long master", 273, 656},
		{"short random", 272, 301},
		{"empty random", 272, 0},
	}
	for _, tt := range cases {
		_, err := DeriveKeys(kdf, make([]byte, tt.mk), make([]byte, tt.rfk), testInput())
		if !errors.Is(err, errs.ErrInvalidInputLength) {
			t.Errorf("%s: err = %v, want ErrInvalidInputLength", tt.name, err)
		}
	}
	if len(kdf.calls) != 0 {
		t.Errorf("kdf called on invalid input")
	}
}

func TestDeriveKeysKDFFailure(t *testing.T) {
	kdf := &fakeKDF{err: errors.New("boom")}
	_, err := DeriveKeys(kdf, make([]byte, 272), make([]byte, 656), testInput())
	if !errors.Is(err, errs.ErrKeyDerivation) {
		t.Fatalf("err = %v, want ErrKeyDerivation", err)
	}
}

func TestBackupKeysSplit(t *testing.T) {
	keys := &BackupKeys{MetadataKey: seq(672, 0), FileKey: seq(416, 0)}
	if len(keys.FileNameKey()) != 224 || len(keys.DescriptionKey()) != 224 || len(keys.IntegrityKey()) != 224 {
		t.Fatalf("unexpected split sizes")
	}
	if keys.DescriptionKey()[0] != 224 || keys.IntegrityKey()[0] != byte(448%256) {
		t.Fatalf("split offsets wrong")
	}
	if !keys.Valid() {
		t.Fatal("full size keys reported invalid")
	}
	keys.Clear()
	if !bytes.Equal(keys.FileKey, make([]byte, 416)) {
		t.Fatalf("Clear did not zero file key")
	}

	for _, k := range []*BackupKeys{
		nil,
		{MetadataKey: seq(100, 0), FileKey: seq(416, 0)},
		{MetadataKey: seq(672, 0), FileKey: seq(415, 0)},
	} {
		if k.Valid() {
			t.Errorf("keys %+v reported valid", k)
		}
	}
}

func TestCoreClear(t *testing.T) {
	c := NewCore(&fakeKDF{}, cipher.NewSerpentGCMCipher())
	b := seq(64, 1)
	c.Clear(b)
	if !bytes.Equal(b, make([]byte, 64)) {
		t.Fatalf("Clear left %x", b)
	}
	c.Clear(nil)
}

// >>>

func TestTagRoundTrip(t *testing.T) {
	tag := &Tag{
		Email:       "a@b.com",
		BackupID:    "proj1",
		MetadataKey: seq(672, 9),
		FileKey:     seq(416, 200),
	}
	s := tag.Encode()

	if strings.Contains(s, "a@b.com") {
		t.Fatalf("tag contains plaintext email")
	}
	if strings.ContainsAny(s, " \t\n") {
		t.Fatalf("tag contains whitespace")
	}
	if n := strings.Count(s, ","); n != 3 {
		t.Fatalf("tag has %d separators", n)
	}
	if !strings.HasPrefix(s, "YUBiLmNvbQ==,proj1,") {
		t.Fatalf("unexpected prefix %q", s[:20])
	}

	got, err := DecodeTag(s)
	if err != nil {
		t.Fatalf("DecodeTag: %v", err)
	}
	if got.Email != tag.Email || got.BackupID != tag.BackupID {
		t.Errorf("got %q/%q", got.Email, got.BackupID)
	}
	if !bytes.Equal(got.MetadataKey, tag.MetadataKey) || !bytes.Equal(got.FileKey, tag.FileKey) {
		t.Errorf("keys mismatch")
	}

	if _, err := DecodeTag("  " + s + "\n"); err != nil {
		t.Errorf("pasted tag with whitespace: %v", err)
	}
}

func TestDecodeTagMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"three fields": "YUBiLmNvbQ==,proj1,AAAA",
		"five fields":  "YUBiLmNvbQ==,proj1,AAAA,AAAA,AAAA",
		"bad email":    "***,proj1,AAAA,AAAA",
		"empty email":  ",proj1,AAAA,AAAA",
		"empty id":     "YUBiLmNvbQ==,,AAAA,AAAA",
		"bad meta key": "YUBiLmNvbQ==,proj1,A,AAAA",
		"bad file key": "YUBiLmNvbQ==,proj1,AAAA,!!",
	}
	encode := func(email, id string, metaLen, fileLen int) string {
		return (&Tag{Email: email, BackupID: id, MetadataKey: seq(metaLen, 1), FileKey: seq(fileLen, 2)}).Encode()
	}
	cases["short meta key"] = encode("a@b.com", "proj1", 100, 416)
	cases["short file key"] = encode("a@b.com", "proj1", 672, 100)
	cases["long file key"] = encode("a@b.com", "proj1", 672, 417)
	cases["not an email"] = encode("nobody", "proj1", 672, 416)
	cases["email with slash"] = encode("a/b@c.com", "proj1", 672, 416)
	cases["dotted email"] = encode("../x", "proj1", 672, 416)
	cases["id escapes"] = encode("a@b.com", "../../other", 672, 416)
	cases["id with slash"] = encode("a@b.com", "x/y", 672, 416)

	for name, s := range cases {
		if _, err := DecodeTag(s); !errors.Is(err, errs.ErrMalformedTag) {
			t.Errorf("%s: err = %v, want ErrMalformedTag", name, err)
		}
	}
}

func TestValidBackupID(t *testing.T) {
	for id, want := range map[string]bool{
		"proj1":      true,
		"Ab9Zq0x7Kd": true,
		"":           false,
		"a-b":        false,
		"..":         false,
		"a b":        false,
	} {
		if got := ValidBackupID(id); got != want {
			t.Errorf("ValidBackupID(%q) = %v, want %v", id, got, want)
		}
	}
}

// >>>

func TestDeriveMasterKey(t *testing.T) {
	kdf := &fakeKDF{}
	creds, err := DeriveMasterKey(kdf, "a@b.com", []byte("correct horse"))
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}
	if len(creds.MasterKey) != consts.MASTER_KEY_SIZE {
		t.Fatalf("master key is %d bytes", len(creds.MasterKey))
	}
	if creds.Iterations < 1100 || creds.Iterations > 1400 {
		t.Fatalf("iterations %d out of range", creds.Iterations)
	}

	call := kdf.calls[0]
	if call.outLen != 336 || len(call.salt) != 64 || call.iterations != creds.Iterations {
		t.Fatalf("unexpected kdf call: len %d salt %d iter %d", call.outLen, len(call.salt), call.iterations)
	}
	full, _ := (&fakeKDF{}).Derive(call.secret, call.salt, call.iterations, 336)
	if !bytes.Equal(creds.MasterKey, full[64:]) {
		t.Fatalf("master key is not derived[64:]")
	}

	again, err := DeriveMasterKey(&fakeKDF{}, "a@b.com", []byte("correct horse"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again.MasterKey, creds.MasterKey) || again.Iterations != creds.Iterations {
		t.Fatalf("login derivation is not deterministic")
	}

	other, _ := DeriveMasterKey(&fakeKDF{}, "c@d.com", []byte("correct horse"))
	if bytes.Equal(other.MasterKey, creds.MasterKey) {
		t.Fatalf("different emails gave the same key")
	}
}

func TestDeriveMasterKeyEmpty(t *testing.T) {
	if _, err := DeriveMasterKey(&fakeKDF{}, "", []byte("x")); !errors.Is(err, errs.ErrKeyDerivation) {
		t.Fatalf("err = %v", err)
	}
	if _, err := DeriveMasterKey(&fakeKDF{}, "a@b.com", nil); !errors.Is(err, errs.ErrKeyDerivation) {
		t.Fatalf("err = %v", err)
	}
}

// >>>

func TestNewBackupSecrets(t *testing.T) {
	snap := seq(consts.ENTROPY_POOL_SIZE, 0)
	sec, err := NewBackupSecrets(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sec.RandomFileKey, snap[:656]) {
		t.Errorf("random file key is not the pool prefix")
	}
	if len(sec.MetadataSalt) != 48 || len(sec.FileSalt) != 48 {
		t.Errorf("salt sizes %d/%d", len(sec.MetadataSalt), len(sec.FileSalt))
	}
	if bytes.Equal(sec.MetadataSalt, snap[656:704]) {
		t.Errorf("metadata salt not mixed with fresh randomness")
	}

	snap[0] = 0xFF
	if sec.RandomFileKey[0] == 0xFF {
		t.Errorf("random file key aliases the snapshot")
	}

	if _, err := NewBackupSecrets(make([]byte, 751)); !errors.Is(err, errs.ErrInvalidInputLength) {
		t.Errorf("short snapshot err = %v", err)
	}
}

func TestNewBackupID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewBackupID()
		if err != nil {
			t.Fatal(err)
		}
		if len(id) != consts.BACKUP_ID_LENGTH {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(consts.BACKUP_ID_ALPHABET, r) {
				t.Fatalf("id %q has rune %q", id, r)
			}
		}
		seen[id] = true
	}
	if len(seen) < 50 {
		t.Fatalf("duplicate ids generated")
	}
}

// >>>

func TestCoreSession(t *testing.T) {
	c := NewCore(&fakeKDF{}, cipher.NewSerpentGCMCipher())
	if c.Active() {
		t.Fatalf("new core is active")
	}
	if _, err := c.DeriveBackupKeys(make([]byte, 656), testInput()); !errors.Is(err, errs.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	if err := c.Login("a@b.com", []byte("pw")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !c.Active() || c.Email() != "a@b.com" || c.Iterations() < 1100 {
		t.Fatalf("session not set: %v %q %d", c.Active(), c.Email(), c.Iterations())
	}

	keys, err := c.DeriveBackupKeys(seq(656, 1), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys.FileKey) != 416 {
		t.Fatalf("file key is %d bytes", len(keys.FileKey))
	}

	c.DelSession()
	if c.Active() || c.Email() != "" {
		t.Fatalf("session not cleared")
	}
}

func TestCoreSetSessionCopies(t *testing.T) {
	c := NewCore(&fakeKDF{}, cipher.NewSerpentGCMCipher())
	mk := seq(272, 0)
	if err := c.SetSession("a@b.com", mk, 1100); err != nil {
		t.Fatal(err)
	}
	k1, _ := c.DeriveBackupKeys(seq(656, 1), testInput())
	mk[0] ^= 0xFF
	k2, _ := c.DeriveBackupKeys(seq(656, 1), testInput())
	if !bytes.Equal(k1.FileKey, k2.FileKey) {
		t.Fatalf("core aliases the caller's master key")
	}

	if err := c.SetSession("a@b.com", make([]byte, 10), 1); !errors.Is(err, errs.ErrInvalidInputLength) {
		t.Fatalf("err = %v", err)
	}
}

func TestCoreWrapFileKey(t *testing.T) {
	c := NewCore(&fakeKDF{}, cipher.NewSerpentGCMCipher())
	if err := c.SetSession("a@b.com", seq(272, 0), 1200); err != nil {
		t.Fatal(err)
	}
	rfk := seq(656, 7)
	salt := seq(32, 1)

	wrapped, err := c.WrapFileKey(rfk, salt)
	if err != nil {
		t.Fatalf("WrapFileKey: %v", err)
	}
	got, err := c.UnwrapFileKey(wrapped, salt)
	if err != nil {
		t.Fatalf("UnwrapFileKey: %v", err)
	}
	if !bytes.Equal(got, rfk) {
		t.Fatalf("unwrap mismatch")
	}

	if _, err := c.UnwrapFileKey(wrapped, seq(32, 2)); !errors.Is(err, errs.ErrIntegrity) {
		t.Fatalf("wrong salt err = %v, want ErrIntegrity", err)
	}

	sealed, err := c.SealPrivate([]byte("inbox seed"), salt)
	if err != nil {
		t.Fatal(err)
	}
	if opened, err := c.OpenPrivate(sealed, salt); err != nil || string(opened) != "inbox seed" {
		t.Fatalf("OpenPrivate = %q, %v", opened, err)
	}

	c.DelSession()
	if _, err := c.OpenPrivate(sealed, salt); !errors.Is(err, errs.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if _, err := c.UnwrapFileKey(wrapped, salt); !errors.Is(err, errs.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}
