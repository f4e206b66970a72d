package store

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// FileRegion keeps the region image in a file, replaced atomically on write.
type FileRegion struct {
	path string
}

func NewFileRegion(path string) *FileRegion {
	return &FileRegion{path: path}
}

// Read returns an erased (zeroed) region when the file does not exist yet.
func (r *FileRegion) Read() ([]byte, error) {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make([]byte, RegionSize), nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *FileRegion) Write(b []byte) error {
	tmpPath := r.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := file.Write(b); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, r.path)
}

// MemRegion is an in-memory region for the simulator and tests.
type MemRegion struct {
	mutex sync.Mutex
	data  []byte
	Fail  error
}

func NewMemRegion() *MemRegion {
	return &MemRegion{data: make([]byte, RegionSize)}
}

func (r *MemRegion) Read() ([]byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out, nil
}

func (r *MemRegion) Write(b []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.data = append(r.data[:0], b...)
	return nil
}
