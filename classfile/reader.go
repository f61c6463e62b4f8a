package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// byteReader is a small big-endian binary cursor over the classfile byte
// stream. The JVM classfile format is entirely big-endian.
type byteReader struct {
	r   io.Reader
	buf [8]byte
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: r}
}

func (b *byteReader) u1() (uint8, error) {
	if _, err := io.ReadFull(b.r, b.buf[:1]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return b.buf[0], nil
}

func (b *byteReader) u2() (uint16, error) {
	if _, err := io.ReadFull(b.r, b.buf[:2]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint16(b.buf[:2]), nil
}

func (b *byteReader) u4() (uint32, error) {
	if _, err := io.ReadFull(b.r, b.buf[:4]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint32(b.buf[:4]), nil
}

func (b *byteReader) u8() (uint64, error) {
	if _, err := io.ReadFull(b.r, b.buf[:8]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint64(b.buf[:8]), nil
}

func (b *byteReader) bytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return buf, nil
}

func (b *byteReader) skip(n int) error {
	if n == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, b.r, int64(n))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return nil
}
