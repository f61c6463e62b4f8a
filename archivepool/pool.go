// Package archivepool manages zip/jar archive handles for the duration of a
// scan: a free-list of copy buffers so concurrent workers don't
// each pay for their own allocation, plus on-disk materialization of
// archives nested inside other archives (a zip.Reader needs an io.ReaderAt,
// which an entry inside another zip does not offer directly). Grounded on
// the teacher's sync.Pool buffer pool in pkg/tarfs/pool.go, adapted from
// tar's gzip/zstd decoders to zip's flate decompressor.
package archivepool

import (
	"archive/zip"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

func init() {
	// Swap in klauspost/compress's flate for the deflate method, the same
	// faster-drop-in-codec move the teacher's corpus makes for gzip/zstd
	// decoding.
	zip.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
}

// bufPool is a package-level free-list of copy buffers, the same shape as
// the teacher's bufpool: sized for streaming a nested archive's bytes out
// to a temp file during materialization.
var bufPool sync.Pool

func getCopyBuf() []byte {
	b := bufPool.Get()
	if b == nil {
		return make([]byte, 1024*1024)
	}
	return b.([]byte)
}

func putCopyBuf(b []byte) { bufPool.Put(b) }
