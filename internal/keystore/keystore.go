// Package keystore reads the participants' public key material from the local key directory.
//
// Keys are stored one per file as public_{abn}.key. The files are published to the directory
// service as they are (the format is owned by the signing tool that produced them).
package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

var ErrKeyNotFound = errors.New("public key not found")

// PublicKeyReader is used by the directory client to read the key it publishes
type PublicKeyReader interface {
	PublicKey(businessNumber string) ([]byte, error)
}

// FileStore reads keys from a directory. Reads go through os.Root so a file name cannot escape the directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// FileName returns the key file name for a business number
func FileName(businessNumber string) string {
	return "public_" + businessNumber + ".key"
}

// PublicKey returns the contents of public_{abn}.key
func (s *FileStore) PublicKey(businessNumber string) ([]byte, error) {
	if err := participant.ValidateBusinessNumber(businessNumber); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open keys directory: %w", err)
	}
	defer root.Close()

	data, err := root.ReadFile(FileName(businessNumber))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, FileName(businessNumber))
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName(businessNumber), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrKeyNotFound, FileName(businessNumber))
	}
	return data, nil
}

// Fingerprint is the SHA-256 of the key bytes, hex encoded
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:])
}
