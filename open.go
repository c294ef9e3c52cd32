package ras

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stdin is the path that Open maps to standard input.
const Stdin = "-"

// Open returns a reader over the decompressed contents of path. The path may
// be a local file (with "~/" expanded), a Google Storage object
// ("gs://bucket/object"), or "-" / "" for standard input. Compression is
// detected from the leading bytes, not the file extension.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" || path == Stdin {
		rc, err := decompressStream(io.NopCloser(os.Stdin))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("stdin: %w", err))
		}
		return rc, nil
	}

	rc, err := openSeekable(ctx, path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rc, nil
}

// openSeekable opens a local file or a Google Storage object. zstd is
// handled here; everything else genomisc knows how to sniff (gzip, zip,
// bzip2, xz, compress) goes through genomisc.
func openSeekable(ctx context.Context, path string) (io.ReadCloser, error) {
	var client *storage.Client
	if strings.HasPrefix(path, "gs://") {
		bucket, object, ok := strings.Cut(strings.TrimPrefix(path, "gs://"), "/")
		if !ok || bucket == "" || object == "" {
			return nil, fmt.Errorf("expected gs://bucket/object")
		}

		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		path = genomisc.ExpandHome(path)
	}

	closeClient := func() {
		if client != nil {
			client.Close()
		}
	}

	f, err := genomisc.MaybeOpenSeekerFromGoogleStorage(path, client)
	if err != nil {
		closeClient()
		return nil, err
	}

	head := make([]byte, len(magicZStandard))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		closeClient()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		closeClient()
		return nil, err
	}

	closers := []io.Closer{closedOK{f}}
	if client != nil {
		closers = append(closers, client)
	}

	if DetectCompression(head[:n]) == CompressionZStandard {
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			closeClient()
			return nil, err
		}
		zr := dec.IOReadCloser()
		return &stackedReadCloser{Reader: zr, closers: append([]io.Closer{zr}, closers...)}, nil
	}

	rc, err := genomisc.MaybeDecompressReadCloserFromFile(f)
	if err != nil {
		f.Close()
		closeClient()
		return nil, err
	}

	return &stackedReadCloser{Reader: rc, closers: append([]io.Closer{rc}, closers...)}, nil
}

// closedOK closes the underlying source, tolerating a decompressor that has
// already closed it.
type closedOK struct {
	io.Closer
}

func (c closedOK) Close() error {
	if err := c.Closer.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decompressStream sniffs a non-seekable stream such as stdin.
func decompressStream(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(raw)

	// Peek returns what it can along with io.EOF for short inputs; a short
	// stream is simply not compressed.
	head, err := br.Peek(len(magicZStandard))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	switch DetectCompression(head) {
	case CompressionGZIP:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackedReadCloser{Reader: gz, closers: []io.Closer{gz, raw}}, nil

	case CompressionZStandard:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		zr := dec.IOReadCloser()
		return &stackedReadCloser{Reader: zr, closers: []io.Closer{zr, raw}}, nil
	}

	return &stackedReadCloser{Reader: br, closers: []io.Closer{raw}}, nil
}
