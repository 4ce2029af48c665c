package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"podcaster/internal/metrics"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

// FileStore keeps artifacts as files under a root directory.
type FileStore struct {
	root   string
	policy transport.Policy
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string, policy transport.Policy) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("artifacts: file store root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FileStore{root: root, policy: policy}, nil
}

// Put writes data to a new key. The file is staged under a temp name and
// hard-linked into place, so an existing key is never overwritten and
// readers never observe a partial artifact.
func (s *FileStore) Put(ctx context.Context, name Name, data []byte) (string, error) {
	key := name.NewKey()
	target := filepath.Join(s.root, filepath.FromSlash(key))
	_, err := transport.Retry(ctx, s.policy, "artifacts.file.put", func(context.Context) (struct{}, error) {
		return struct{}{}, classifyFileErr("put", writeOnce(target, data))
	})
	if err != nil {
		return "", err
	}
	metrics.RecordArtifact(name.Prefix, len(data))
	return key, nil
}

func writeOnce(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Link(tmpName, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return services.Wrap(services.ErrConflict, "artifacts", "put", fmt.Sprintf("artifact %q already exists", target), nil)
		}
		return err
	}
	return nil
}

// Get reads the artifact stored under ref.
func (s *FileStore) Get(ctx context.Context, ref string) ([]byte, error) {
	key, err := validateRef(ref)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	return transport.Retry(ctx, s.policy, "artifacts.file.get", func(context.Context) ([]byte, error) {
		data, err := os.ReadFile(target)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(ref)
		}
		return data, classifyFileErr("get", err)
	})
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

// Root returns the directory artifacts are written under.
func (s *FileStore) Root() string { return s.root }

func classifyFileErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrNotFound) {
		return err
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EBUSY) {
		return services.Wrap(services.ErrTransient, "artifacts", operation, "file system busy", err)
	}
	return fmt.Errorf("artifacts %s: %w", operation, err)
}
