// Package tableio moves count tables and sample metadata between delimited
// text files and the rnaprep data model, and writes prepared tables to SQLite
// or BigQuery.
package tableio

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
	DataTypeZlib
)

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeZ, []byte{0x1f, 0x9d}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
	{DataTypeZlib, []byte{0x78, 0x01}},
	{DataTypeZlib, []byte{0x78, 0x9c}},
	{DataTypeZlib, []byte{0x78, 0xda}},
}

// DetectDataType identifies the compression of a stream from its leading
// bytes. It peeks, so nothing is consumed from r.
func DetectDataType(r *bufio.Reader) DataType {
	head, _ := r.Peek(6)
	for _, s := range byteCodeSigs {
		if bytes.HasPrefix(head, s.sig) {
			return s.dt
		}
	}

	return DataTypeNoCompression
}

// Decompress wraps r with the decompressor its leading bytes call for.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	switch DetectDataType(br) {
	case DataTypeGzip:
		return gzip.NewReader(br)
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, fmt.Errorf("reading first zip entry: %w", err)
		}
		return zr, nil
	case DataTypeBZip2:
		return bzip2.NewReader(br), nil
	case DataTypeXZ:
		return xz.NewReader(br, 0)
	case DataTypeZlib:
		return zlib.NewReader(br)
	case DataTypeZ:
		return nil, fmt.Errorf("unix compress (.Z) input is not supported; decompress it first")
	}

	// No known signature. Assume this is uncompressed.
	return br, nil
}

// ExpandHome expands a leading ~/ to the current user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", err
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// Open returns a decompressed stream for a local path or, when client is not
// nil, a gs://bucket/object path.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var (
		raw io.ReadCloser
		err error
	)

	if client != nil && strings.HasPrefix(path, "gs://") {
		raw, err = openGoogleStorage(ctx, path, client)
	} else {
		if path, err = ExpandHome(path); err != nil {
			return nil, err
		}
		raw, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}

	r, err := Decompress(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &readCloser{Reader: r, close: raw.Close}, nil
}

func openGoogleStorage(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[1] == "" {
		return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	rdr, err := client.Bucket(pathParts[0]).Object(pathParts[1]).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rdr, nil
}

// readCloser closes the underlying source of a decompressing reader.
type readCloser struct {
	io.Reader
	close func() error
}

func (c *readCloser) Close() error {
	return c.close()
}
