package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pfbverify/internal/dada"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDump writes a single channel, single polarization complex DADA file.
func WriteDump(t testing.TB, path string, data []complex64) *dada.File {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	h := dada.NewHeader()
	h.Set("NCHAN", "1")
	h.Set("NPOL", "1")
	h.Set("NDIM", "2")
	h.Set("NBIT", "32")
	f := &dada.File{Path: path, Header: h, Data: data}
	if err := f.Write(); err != nil {
		t.Fatalf("write dump %s: %v", path, err)
	}
	return f
}
