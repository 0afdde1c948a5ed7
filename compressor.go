package restcache

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/golang/snappy"
)

// Compressor compresses response bodies before they go into the cache
// and expands them on the way out. Entries record the name of the
// compressor they were written with, entries written with a different
// one are treated as misses.
type Compressor interface {
	Compress(body []byte) []byte
	Expand(body []byte) ([]byte, error)
	Name() string
}

// CompressorSnappy is a Snappy compressor
// 14x faster compress than gzip
// 8x faster expand than gzip
// ~ 1.5 - 2x larger result
type CompressorSnappy struct {
}

func (c CompressorSnappy) Compress(body []byte) []byte {
	return snappy.Encode(nil, body)
}

func (c CompressorSnappy) Expand(body []byte) ([]byte, error) {
	return snappy.Decode(nil, body)
}

func (c CompressorSnappy) Name() string {
	return "snappy"
}

// CompressorGzip is a gzip compressor
type CompressorGzip struct {
}

func (c CompressorGzip) Compress(body []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(body)
	zw.Close()
	return buf.Bytes()
}

func (c CompressorGzip) Expand(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (c CompressorGzip) Name() string {
	return "gzip"
}
