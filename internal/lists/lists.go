package lists

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const partialDir = "partial"

// Dir is the directory holding downloaded index files under their flat
// names. Downloads land in partial/ and are renamed into place once complete.
type Dir struct {
	sync.RWMutex
	dir string
}

func New(dir string) (*Dir, error) {
	if err := os.MkdirAll(filepath.Join(dir, partialDir), 0755); err != nil {
		return nil, err
	}

	return &Dir{dir: dir}, nil
}

// Open returns a read-only view that does not create anything on disk.
func Open(dir string) *Dir {
	return &Dir{dir: dir}
}

func (d *Dir) Root() string {
	return d.dir
}

func (d *Dir) Path(filename string) string {
	return filepath.Join(d.dir, filename)
}

func (d *Dir) Has(filename string) bool {
	d.RLock()
	defer d.RUnlock()
	info, err := os.Stat(d.Path(filename))
	return err == nil && !info.IsDir()
}

// Create opens a fresh temporary file for filename inside partial/.
func (d *Dir) Create(filename string) (*os.File, error) {
	dir := filepath.Join(d.dir, partialDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.CreateTemp(dir, filename+".*")
}

func (d *Dir) Store(filename, src string) (string, error) {
	d.Lock()
	defer d.Unlock()

	dest := d.Path(filename)
	if err := os.Rename(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (d *Dir) Remove(filename string) error {
	d.Lock()
	defer d.Unlock()

	err := os.Remove(d.Path(filename))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Prune deletes index files not named in keep and returns what it removed.
// Lock files, partial/ and anything without an index-like name are left alone.
func (d *Dir) Prune(keep map[string]bool) ([]string, error) {
	d.Lock()
	defer d.Unlock()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || keep[name] || !isIndexName(name) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (d *Dir) Size() (int64, error) {
	d.RLock()
	defer d.RUnlock()

	var size int64

	err := filepath.Walk(d.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size, err
}

// Clear removes every index file and any partial download.
func (d *Dir) Clear() error {
	d.Lock()
	defer d.Unlock()

	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Name() == "lock" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.dir, e.Name())); err != nil {
			return err
		}
	}
	return os.MkdirAll(filepath.Join(d.dir, partialDir), 0755)
}

func isIndexName(name string) bool {
	return strings.HasSuffix(name, "_Packages") ||
		strings.HasSuffix(name, "_InRelease") ||
		strings.HasSuffix(name, "_Release")
}
