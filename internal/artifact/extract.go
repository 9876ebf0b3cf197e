package artifact

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the outer encoding of an archive.
type Compression string

// Supported archive encodings.
const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// DetectCompression inspects the leading bytes of an archive.
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(header, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(header, magicLZ4):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Extract unpacks archive into destDir. Progress is reported over the bytes
// read from the archive file, so the total is its on-disk size.
func (p *Pipeline) Extract(ctx context.Context, archive, destDir string) (bool, error) {
	// #nosec G304
	f, err := os.Open(archive)
	if err != nil {
		return false, &IOError{Op: "open", Path: archive, Err: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return false, &IOError{Op: "stat", Path: archive, Err: err}
	}
	p.progress.SetProgressTotal(info.Size())

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return false, &IOError{Op: "mkdir", Path: destDir, Err: err}
	}

	br := bufio.NewReader(&progressReader{ctx: ctx, r: f, progress: p.progress})
	header, _ := br.Peek(4)

	stream, closeStream, err := decompress(DetectCompression(header), br)
	if err != nil {
		return false, &ExtractError{Archive: archive, Err: err}
	}
	defer closeStream()

	if err := untar(ctx, tar.NewReader(stream), destDir); err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return false, err
		}
		return false, &ExtractError{Archive: archive, Err: err}
	}
	return true, nil
}

func decompress(c Compression, r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

func untar(ctx context.Context, tr *tar.Reader, destDir string) error {
	root, err := filepath.Abs(destDir)
	if err != nil {
		return &IOError{Op: "resolve", Path: destDir, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(root, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return &IOError{Op: "mkdir", Path: target, Err: err}
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// Links and devices never appear in an OVA.
			continue
		}
	}
}

// safeJoin resolves name under root and rejects entries escaping it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the destination directory", name)
	}
	return target, nil
}

func writeEntry(r io.Reader, target string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}
	if perm == 0 {
		perm = 0o640
	}
	// #nosec G304
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return &IOError{Op: "create", Path: target, Err: err}
	}

	w := &writeTracker{w: out}
	_, copyErr := io.Copy(w, r)
	closeErr := out.Close()

	switch {
	case w.err != nil:
		return &IOError{Op: "write", Path: target, Err: w.err}
	case copyErr != nil:
		return copyErr
	case closeErr != nil:
		return &IOError{Op: "close", Path: target, Err: closeErr}
	}
	return nil
}
