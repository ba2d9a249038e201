package dada

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// DefaultHeaderSize is the header length written when HDR_SIZE is absent.
const DefaultHeaderSize = 4096

// Header is an ordered set of ASCII "KEY value" pairs.
type Header struct {
	keys   []string
	values map[string]string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// ParseHeader decodes the NUL padded header block.
func ParseHeader(raw []byte) (*Header, error) {
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}
	h := NewHeader()
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		h.Set(key, strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan header: %w", err)
	}
	return h, nil
}

// Get returns the value stored for key, or "".
func (h *Header) Get(key string) string {
	return h.values[key]
}

// Lookup returns the value stored for key and whether it was present.
func (h *Header) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Set stores value under key, keeping the original position of existing keys.
func (h *Header) Set(key, value string) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Int parses the value stored for key.
func (h *Header) Int(key string) (int, error) {
	raw, ok := h.values[key]
	if !ok {
		return 0, fmt.Errorf("header key %s missing", key)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("header key %s: %w", key, err)
	}
	return v, nil
}

// IntOr parses the value stored for key, returning fallback when absent.
func (h *Header) IntOr(key string, fallback int) (int, error) {
	if _, ok := h.values[key]; !ok {
		return fallback, nil
	}
	return h.Int(key)
}

// Keys returns the header keys in insertion order.
func (h *Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	c := NewHeader()
	for _, k := range h.keys {
		c.Set(k, h.values[k])
	}
	return c
}

// Size returns HDR_SIZE, defaulting to DefaultHeaderSize.
func (h *Header) Size() (int, error) {
	return h.IntOr("HDR_SIZE", DefaultHeaderSize)
}

// Encode renders the header padded with NUL bytes to Size().
func (h *Header) Encode() ([]byte, error) {
	size, err := h.Size()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, k := range h.keys {
		buf.WriteString(k)
		buf.WriteByte(' ')
		buf.WriteString(h.values[k])
		buf.WriteByte('\n')
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("header is %d bytes, exceeds HDR_SIZE %d", buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}
