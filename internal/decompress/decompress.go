// Package decompress opens index files regardless of how the archive
// encoded them, detecting the format from its magic bytes.
package decompress

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type Format string

const (
	Plain Format = ""
	GZIP  Format = "gz"
	XZ    Format = "xz"
	ZSTD  Format = "zst"
	BZIP2 Format = "bz2"
)

// Detect returns the format announced by the leading bytes of header.
// https://gist.github.com/leommoore/f9e57ba2aa4bf197ebc5
func Detect(header []byte) Format {
	n := len(header)
	switch {
	case n >= 4 && header[0] == 0x28 && header[1] == 0xb5 && header[2] == 0x2f && header[3] == 0xfd:
		return ZSTD
	case n >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		return GZIP
	case n >= 6 && header[0] == 0xfd && header[1] == 0x37 && header[2] == 0x7a && header[3] == 0x58 && header[4] == 0x5a && header[5] == 0x00:
		return XZ
	case n >= 3 && header[0] == 0x42 && header[1] == 0x5a && header[2] == 0x68:
		return BZIP2
	default:
		return Plain
	}
}

// NewReader wraps r with the decoder its content needs. The returned
// close function releases decoder resources; it does not close r.
func NewReader(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	header, _ := br.Peek(6)

	switch Detect(header) {
	case ZSTD:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil

	case GZIP:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gzr, func() { gzr.Close() }, nil

	case XZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xzr, func() {}, nil

	case BZIP2:
		return bzip2.NewReader(br), func() {}, nil

	default:
		return br, func() {}, nil
	}
}

// OpenFile opens path and returns a reader over its decoded content.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, release, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &fileReader{Reader: r, file: f, release: release}, nil
}

type fileReader struct {
	io.Reader
	file    *os.File
	release func()
}

func (f *fileReader) Close() error {
	f.release()
	return f.file.Close()
}
