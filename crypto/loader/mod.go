// Package loader loads the private key of a marketplace participant from the
// disk, or generates it and stores it for the next time.
package loader

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"go.dedis.ch/bazaar/crypto/ed25519"
	"golang.org/x/xerrors"
)

// Generator is the interface to implement to generate a key.
type Generator interface {
	Generate() ([]byte, error)
}

// Loader is an abstraction to load a key from a storage.
type Loader interface {
	// LoadOrCreate tries to load the key and returns it if found, otherwise it
	// generates a new one using the generator and stores it.
	LoadOrCreate(Generator) ([]byte, error)

	// Load returns the key, or an error if it does not exist.
	Load() ([]byte, error)
}

// fileLoader is loader that is storing the keys in a file, hex encoded.
//
// - implements loader.Loader
type fileLoader struct {
	path string

	openFn     func(path string) (*os.File, error)
	openFileFn func(path string, flags int, perms os.FileMode) (*os.File, error)
	statFn     func(path string) (os.FileInfo, error)
}

// NewFileLoader creates a new loader that is using the file given in parameter.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path:       path,
		openFn:     os.Open,
		openFileFn: os.OpenFile,
		statFn:     os.Stat,
	}
}

// LoadOrCreate implements loader.Loader. The file created has minimal read
// permission for the current user (0400).
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	_, err := l.statFn(l.path)
	if !os.IsNotExist(err) {
		return l.Load()
	}

	data, err := g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	file, err := l.openFileFn(l.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0400)
	if err != nil {
		return nil, xerrors.Errorf("while creating file: %v", err)
	}

	defer file.Close()

	_, err = file.WriteString(hex.EncodeToString(data))
	if err != nil {
		return nil, xerrors.Errorf("while writing: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader.
func (l fileLoader) Load() ([]byte, error) {
	file, err := l.openFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while opening file: %v", err)
	}

	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("while reading file: %v", err)
	}

	data, err := hex.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, xerrors.Errorf("while decoding file: %v", err)
	}

	return data, nil
}

// SignerGenerator generates a fresh Ed25519 private key.
//
// - implements loader.Generator
type SignerGenerator struct{}

// Generate implements loader.Generator.
func (SignerGenerator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalBinary()
}

// LoadSigner reads the signer from the loader. When create is true, a missing
// key is generated.
func LoadSigner(l Loader, create bool) (ed25519.Signer, error) {
	var data []byte
	var err error

	if create {
		data, err = l.LoadOrCreate(SignerGenerator{})
	} else {
		data, err = l.Load()
	}

	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("invalid key: %v", err)
	}

	return signer, nil
}
