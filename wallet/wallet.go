// Package wallet implements Botho's wallet file codec (spec §6): Argon2id
// key derivation, ChaCha20-Poly1305 authenticated encryption of the wallet
// payload, and the persisted lockout rate limiter. Grounded on spec.md §6's
// explicit field list and KDF parameters rather than any teacher file (the
// original btcd-lineage wallet lived outside this pack); file-permission
// handling follows the defensive-owner-only-mode style the teacher applies
// to its own on-disk state (dagconfig data directories).
package wallet

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/botho-project/botho/bterrors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KDF parameters fixed by spec.md §6.
const (
	argonMemoryKiB   = 65536
	argonIterations  = 3
	argonParallelism = 4
	argonKeyLen      = 32
	saltSize         = 16

	// CurrentVersion is the wallet file format version this package writes.
	CurrentVersion uint32 = 1

	// filePerm is the POSIX mode spec.md §6 mandates for wallet.dat.
	filePerm = 0o600
)

// File is the on-disk wallet file shape (spec §6): an encrypted payload
// plus a handful of plaintext bookkeeping fields a wallet needs before it
// can even attempt to decrypt (sync height, network, and two
// loosely-specified optional blobs carried opaquely).
type File struct {
	Version           uint32          `json:"version"`
	Salt              string          `json:"salt"`       // base64
	Nonce             string          `json:"nonce"`       // hex, 12 bytes
	Ciphertext        string          `json:"ciphertext"`  // hex
	DiscoveryState    json.RawMessage `json:"discovery_state,omitempty"`
	PendingChangeTags json.RawMessage `json:"pending_change_tags,omitempty"`
	SyncHeight        uint64          `json:"sync_height"`
	Network           string          `json:"network"`
}

// deriveKey runs Argon2id with spec.md §6's fixed parameters.
func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLen)
}

// Encrypt seals payload under password into a fresh wallet File, with a
// newly drawn salt and nonce. SyncHeight/Network/the optional blobs are
// left zero; callers fill them in after Encrypt returns.
func Encrypt(payload []byte, password []byte) (*File, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "wallet: drawing salt")
	}
	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Wrap(err, "wallet: constructing AEAD")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "wallet: drawing nonce")
	}
	ciphertext := aead.Seal(nil, nonce, payload, nil)
	return &File{
		Version:    CurrentVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
	}, nil
}

// Decrypt recovers the plaintext payload from f using password, returning
// bterrors.RuleError{Code: ErrWalletDecryptFailed} on any authentication
// or format failure (wrong password and corruption are indistinguishable
// to an AEAD, by design).
func Decrypt(f *File, password []byte) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return nil, bterrors.New(bterrors.ErrWalletDecryptFailed, "wallet: invalid salt encoding: %v", err)
	}
	nonce, err := hex.DecodeString(f.Nonce)
	if err != nil {
		return nil, bterrors.New(bterrors.ErrWalletDecryptFailed, "wallet: invalid nonce encoding: %v", err)
	}
	ciphertext, err := hex.DecodeString(f.Ciphertext)
	if err != nil {
		return nil, bterrors.New(bterrors.ErrWalletDecryptFailed, "wallet: invalid ciphertext encoding: %v", err)
	}
	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, bterrors.New(bterrors.ErrWalletDecryptFailed, "wallet: constructing AEAD: %v", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, bterrors.New(bterrors.ErrWalletDecryptFailed, "wallet: authentication failed")
	}
	return plaintext, nil
}

// ChangePassword decrypts f under oldPassword and re-encrypts the same
// payload under newPassword, carrying over every plaintext field
// unchanged (spec §8 law: decrypt(change(old, new), new) ==
// decrypt(old_wallet, old)).
func ChangePassword(f *File, oldPassword, newPassword []byte) (*File, error) {
	payload, err := Decrypt(f, oldPassword)
	if err != nil {
		return nil, err
	}
	next, err := Encrypt(payload, newPassword)
	if err != nil {
		return nil, err
	}
	next.DiscoveryState = f.DiscoveryState
	next.PendingChangeTags = f.PendingChangeTags
	next.SyncHeight = f.SyncHeight
	next.Network = f.Network
	return next, nil
}

// Save writes f to path as JSON with the spec-mandated owner-only mode.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "wallet: encoding wallet file")
	}
	return os.WriteFile(path, data, filePerm)
}

// Load reads and decodes a wallet file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "wallet: reading wallet file")
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "wallet: decoding wallet file")
	}
	return &f, nil
}
