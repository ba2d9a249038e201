package dada

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pfbverify/internal/services"
)

// File is a DADA dump: an ASCII header followed by little-endian float32
// samples laid out as (ndat, nchan, npol, ndim).
type File struct {
	Path   string
	Header *Header
	// Data holds the flattened samples. Real-valued files (NDIM 1) carry a
	// zero imaginary part.
	Data []complex64
}

// Layout describes the sample geometry declared by a header.
type Layout struct {
	NChan int
	NPol  int
	NDim  int
	NBit  int
}

// BytesPerSample is the size of one time sample across channels and polarisations.
func (l Layout) BytesPerSample() int {
	return l.NChan * l.NPol * l.NDim * l.NBit / 8
}

// LayoutOf reads the geometry keys of h, applying single channel defaults.
func LayoutOf(h *Header) (Layout, error) {
	var l Layout
	var err error
	if l.NChan, err = h.IntOr("NCHAN", 1); err != nil {
		return l, err
	}
	if l.NPol, err = h.IntOr("NPOL", 1); err != nil {
		return l, err
	}
	if l.NDim, err = h.IntOr("NDIM", 2); err != nil {
		return l, err
	}
	if l.NBit, err = h.IntOr("NBIT", 32); err != nil {
		return l, err
	}
	if l.NChan <= 0 || l.NPol <= 0 {
		return l, fmt.Errorf("invalid layout nchan=%d npol=%d", l.NChan, l.NPol)
	}
	if l.NDim != 1 && l.NDim != 2 {
		return l, fmt.Errorf("unsupported NDIM %d", l.NDim)
	}
	if l.NBit != 32 {
		return l, fmt.Errorf("unsupported NBIT %d", l.NBit)
	}
	return l, nil
}

// Load reads the header and payload stored at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingArtifact, "dada", "load", path, err)
		}
		return nil, fmt.Errorf("open dada file: %w", err)
	}
	defer f.Close()

	raw := make([]byte, DefaultHeaderSize)
	n, err := io.ReadFull(f, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read dada header %s: %w", path, err)
	}
	raw = raw[:n]
	header, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	size, err := header.Size()
	if err != nil {
		return nil, err
	}
	if size > n {
		rest := make([]byte, size-n)
		if _, err := io.ReadFull(f, rest); err != nil {
			return nil, fmt.Errorf("read dada header %s: %w", path, err)
		}
		raw = append(raw, rest...)
		if header, err = ParseHeader(raw); err != nil {
			return nil, err
		}
	}
	if _, err := f.Seek(int64(size), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek dada payload: %w", err)
	}

	layout, err := LayoutOf(header)
	if err != nil {
		return nil, fmt.Errorf("dada file %s: %w", path, err)
	}
	payload, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read dada payload: %w", err)
	}
	data, err := decode(payload, layout.NDim)
	if err != nil {
		return nil, fmt.Errorf("dada file %s: %w", path, err)
	}
	return &File{Path: path, Header: header, Data: data}, nil
}

// Layout returns the sample geometry declared by the header.
func (f *File) Layout() (Layout, error) {
	return LayoutOf(f.Header)
}

// NDat returns the number of time samples.
func (f *File) NDat() (int, error) {
	l, err := f.Layout()
	if err != nil {
		return 0, err
	}
	return len(f.Data) / (l.NChan * l.NPol), nil
}

// Write stores the header and payload at f.Path.
func (f *File) Write() error {
	if f.Header == nil {
		f.Header = NewHeader()
	}
	layout, err := f.Layout()
	if err != nil {
		return err
	}
	if len(f.Data)%(layout.NChan*layout.NPol) != 0 {
		return fmt.Errorf("payload of %d values does not fit nchan=%d npol=%d", len(f.Data), layout.NChan, layout.NPol)
	}
	head, err := f.Header.Encode()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	out := make([]byte, 0, len(head)+len(f.Data)*4*layout.NDim)
	out = append(out, head...)
	out = encode(out, f.Data, layout.NDim)
	return os.WriteFile(f.Path, out, 0o644)
}

// Shift drops the first offset time samples, records the byte offset in
// OBS_OFFSET and writes the result next to f as <name>.shifted.dump.
func (f *File) Shift(offset int) (*File, error) {
	layout, err := f.Layout()
	if err != nil {
		return nil, err
	}
	ndat, err := f.NDat()
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset > ndat {
		return nil, services.Wrap(services.ErrValidation, "dada", "shift",
			fmt.Sprintf("offset %d outside [0, %d]", offset, ndat), nil)
	}
	stride := layout.NChan * layout.NPol
	shifted := &File{
		Path:   ShiftedPath(f.Path),
		Header: f.Header.Clone(),
		Data:   append([]complex64(nil), f.Data[offset*stride:]...),
	}
	shifted.Header.Set("OBS_OFFSET", strconv.Itoa(offset*layout.BytesPerSample()))
	if err := shifted.Write(); err != nil {
		return nil, err
	}
	return shifted, nil
}

// ShiftedPath maps x.dump to x.shifted.dump.
func ShiftedPath(path string) string {
	if strings.HasSuffix(path, ".dump") {
		return strings.TrimSuffix(path, ".dump") + ".shifted.dump"
	}
	return path + ".shifted"
}

// FilePath returns the backing path.
func (f *File) FilePath() string { return f.Path }

// Forward returns the path handed to the next stage of a chain.
func (f *File) Forward() string { return f.Path }

// BackingPaths returns the files deleted when the artifact is disposed.
func (f *File) BackingPaths() []string { return []string{f.Path} }

func decode(payload []byte, ndim int) ([]complex64, error) {
	width := 4 * ndim
	if len(payload)%width != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a multiple of %d", len(payload), width)
	}
	out := make([]complex64, len(payload)/width)
	for i := range out {
		off := i * width
		re := math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
		var im float32
		if ndim == 2 {
			im = math.Float32frombits(binary.LittleEndian.Uint32(payload[off+4:]))
		}
		out[i] = complex(re, im)
	}
	return out, nil
}

func encode(dst []byte, data []complex64, ndim int) []byte {
	for _, v := range data {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(real(v)))
		if ndim == 2 {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(imag(v)))
		}
	}
	return dst
}
