package docstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/parser"
)

// Filesystem is a DocumentStore rooted at a single directory on disk,
// generalizing the teacher's per-conversation document layout
// (internal/storage/storage.go) into a flat per-document store: the
// document id and conversation-scoped subdirectories the teacher used are
// replaced by the repository's own path bookkeeping, so this store only
// needs to lock per file path rather than per conversation.
type Filesystem struct {
	id   string
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFilesystem initializes a Filesystem rooted at root, creating it if
// necessary.
func NewFilesystem(id, root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, chonkiterr.Infra(err, "create document store root %q", root)
	}
	return &Filesystem{
		id:    id,
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (f *Filesystem) ID() string { return f.id }

func (f *Filesystem) Read(ctx context.Context, path string, p parser.Parser) (string, error) {
	content, err := f.GetBytes(ctx, path)
	if err != nil {
		return "", err
	}
	text, err := p.Parse(content)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (f *Filesystem) GetBytes(ctx context.Context, path string) ([]byte, error) {
	full := f.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chonkiterr.DoesNotExist("document file %q", path)
		}
		return nil, chonkiterr.Infra(err, "read document file %q", path)
	}
	return data, nil
}

func (f *Filesystem) Write(ctx context.Context, name string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	stored := uuid.NewString() + ext
	path := stored

	lock := f.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	full := f.resolve(path)
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", chonkiterr.Infra(err, "write document file %q", path)
	}
	return path, nil
}

func (f *Filesystem) Delete(ctx context.Context, path string) error {
	lock := f.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	full := f.resolve(path)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return chonkiterr.Infra(err, "delete document file %q", path)
	}
	return nil
}

func (f *Filesystem) ListFiles(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, chonkiterr.Infra(err, "list document store root %q", f.root)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		out = append(out, FileInfo{
			Name: entry.Name(),
			Path: entry.Name(),
			Ext:  strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), "."),
		})
	}
	return out, nil
}

func (f *Filesystem) FilterNonExisting(ctx context.Context, documents map[uuid.UUID]string) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for id, path := range documents {
		full := f.resolve(path)
		if _, err := os.Stat(full); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, id)
				continue
			}
			return nil, chonkiterr.Infra(err, "stat document file %q", path)
		}
	}
	return missing, nil
}

func (f *Filesystem) resolve(path string) string {
	return filepath.Join(f.root, path)
}

func (f *Filesystem) lockFor(path string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	if lock, ok := f.locks[path]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	f.locks[path] = lock
	return lock
}
