// Package storage persists generated images under a public root, at paths
// derived only from (kind, key). Saving overwrites; there is no history.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/youruser/cardgrid/internal/util"
)

// ErrUnknownKind is returned for a Kind with no directory mapping.
var ErrUnknownKind = errors.New("unknown image kind")

// Kind selects the image family.
type Kind string

const (
	KindDeck    Kind = "deck"
	KindBanlist Kind = "banlist"
)

var kindDirs = map[Kind]string{
	KindDeck:    "deck-images",
	KindBanlist: "banlist-images",
}

// Store writes images below Root.
type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

// Path returns {root}/{kind dir}/{key}.png.
func (s *Store) Path(kind Kind, key int) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return filepath.Join(s.Root, dir, strconv.Itoa(key)+".png"), nil
}

// URLPath is the slash-separated path of the image relative to the public root.
func URLPath(kind Kind, key int) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return dir + "/" + strconv.Itoa(key) + ".png", nil
}

// Save writes data to the image path, replacing any previous file. The bytes
// go to a temporary file in the same directory first and are renamed into
// place, so readers never observe a partial image.
func (s *Store) Save(kind Kind, key int, data []byte) (string, error) {
	path, err := s.Path(kind, key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}

// Exists reports whether an image has been generated for (kind, key).
func (s *Store) Exists(kind Kind, key int) (bool, error) {
	path, err := s.Path(kind, key)
	if err != nil {
		return false, err
	}
	return util.FileExists(path)
}

// Delete removes the image. Deleting a missing image is not an error.
func (s *Store) Delete(kind Kind, key int) error {
	path, err := s.Path(kind, key)
	if err != nil {
		return err
	}
	if err := util.RemoveIfExists(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
