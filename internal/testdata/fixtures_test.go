package testdata

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	orig := bytes.Repeat([]byte("tile-fixture-payload"), 4096)

	compressed, err := Compress(orig)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) >= len(orig) {
		t.Errorf("expected compressed repeated data to shrink: got %d bytes from %d",
			len(compressed), len(orig))
	}

	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, orig) {
		t.Error("round trip did not reproduce original data")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("expected error decoding non-zstd data")
	}
}
