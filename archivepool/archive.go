package archivepool

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Handle is one open archive: either a plain on-disk jar/zip, opened
// directly by path, or a nested archive materialized to a temp file. Close
// releases the zip.Reader and, for materialized handles, removes the temp
// file.
type Handle struct {
	*zip.Reader

	closer    io.Closer
	tempPath  string
	materialized bool
}

// Close releases the handle's resources. Safe to call once per Handle.
func (h *Handle) Close() error {
	var err error
	if h.closer != nil {
		err = h.closer.Close()
	}
	if h.materialized && h.tempPath != "" {
		if rmErr := os.Remove(h.tempPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Pool tracks every archive Handle opened during a scan so they can all be
// released together, and materializes nested archives to temp files under
// a scan-scoped directory.
type Pool struct {
	tempDir string

	mu      sync.Mutex
	handles []*Handle
}

// New creates a Pool whose nested-archive materializations are written
// under a fresh temp directory. Call Close when the scan finishes to
// remove every handle and the directory itself.
func New() (*Pool, error) {
	dir, err := os.MkdirTemp("", "classgraph-nested-*")
	if err != nil {
		return nil, fmt.Errorf("archivepool: create temp dir: %w", err)
	}
	return &Pool{tempDir: dir}, nil
}

// OpenFile opens a top-level archive directly from disk.
func (p *Pool) OpenFile(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archivepool: %s: %w", path, err)
	}
	h := &Handle{Reader: zr, closer: f}
	p.track(h)
	return h, nil
}

// OpenNested materializes an archive entry found inside another archive to
// a temp file, then opens it as its own zip.Reader. zip.Reader requires an
// io.ReaderAt, which a streamed zip entry cannot offer, so nested archives
// always pay this materialization cost; spec.md's nested-chain identity
// notation ("outer.jar!/inner.jar!/root") exists precisely because of this
// boundary.
func (p *Pool) OpenNested(entry *zip.File) (*Handle, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tempPath := filepath.Join(p.tempDir, uuid.NewString()+".jar")
	out, err := os.Create(tempPath)
	if err != nil {
		return nil, err
	}

	buf := getCopyBuf()
	_, copyErr := io.CopyBuffer(out, rc, buf)
	putCopyBuf(buf)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("archivepool: materialize %s: %w", entry.Name, copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return nil, closeErr
	}

	f, err := os.Open(tempPath)
	if err != nil {
		os.Remove(tempPath)
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("archivepool: nested %s: %w", entry.Name, err)
	}

	h := &Handle{Reader: zr, closer: f, tempPath: tempPath, materialized: true}
	p.track(h)
	return h, nil
}

func (p *Pool) track(h *Handle) {
	p.mu.Lock()
	p.handles = append(p.handles, h)
	p.mu.Unlock()
}

// Close releases every handle opened through the pool and removes its temp
// directory.
func (p *Pool) Close() error {
	p.mu.Lock()
	handles := p.handles
	p.handles = nil
	p.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := os.RemoveAll(p.tempDir); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
