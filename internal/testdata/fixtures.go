// Package testdata holds zstd helpers for Core B's tests, wrapping
// klauspost/compress/zstd the same way svanichkin-babe reaches for it
// around its own encoded image streams. The large-corpus clustering test
// generates its synthetic tile corpus in memory and round-trips it through
// Compress and Decompress; no compressed corpus is stored in the tree.
package testdata

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compress zstd-encodes data.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("testdata: new zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("testdata: new zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("testdata: decode: %w", err)
	}
	return out, nil
}
