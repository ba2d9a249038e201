package datagen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pfbverify/internal/services"
)

// MetaFileName is the sidecar describing a test vector directory.
const MetaFileName = "meta.json"

const (
	metaInputFile       = "input_file"
	metaChannelizedFile = "channelized_file"
	metaInvertedFile    = "inverted_file"
	metaDspsrArchive    = "dspsr_ar_file"
	metaDspsrDump       = "dspsr_pre_Detection_dump"
)

// Meta is the content of a test vector's meta.json. Keys it does not know
// about are kept and written back unchanged.
type Meta struct {
	InputFile       string
	ChannelizedFile string
	InvertedFile    string
	DspsrArchive    string
	DspsrDump       string

	extra map[string]json.RawMessage
}

// MarshalJSON writes known fields over the preserved extra keys.
func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.extra)+5)
	for k, v := range m.extra {
		out[k] = v
	}
	for key, value := range map[string]string{
		metaInputFile:       m.InputFile,
		metaChannelizedFile: m.ChannelizedFile,
		metaInvertedFile:    m.InvertedFile,
		metaDspsrArchive:    m.DspsrArchive,
		metaDspsrDump:       m.DspsrDump,
	} {
		if value != "" {
			out[key] = value
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads known fields and keeps the rest.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := map[string]*string{
		metaInputFile:       &m.InputFile,
		metaChannelizedFile: &m.ChannelizedFile,
		metaInvertedFile:    &m.InvertedFile,
		metaDspsrArchive:    &m.DspsrArchive,
		metaDspsrDump:       &m.DspsrDump,
	}
	for key, dst := range fields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		delete(raw, key)
	}
	m.extra = raw
	return nil
}

// Extra returns a preserved key's raw JSON value.
func (m *Meta) Extra(key string) (json.RawMessage, bool) {
	v, ok := m.extra[key]
	return v, ok
}

// LoadMeta reads dir/meta.json.
func LoadMeta(dir string) (*Meta, error) {
	path := filepath.Join(dir, MetaFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrMissingArtifact, "meta", "load", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, services.Wrap(services.ErrValidation, "meta", "decode", path, err)
	}
	return &meta, nil
}

// SaveMeta writes meta to dir/meta.json.
func SaveMeta(dir string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	path := filepath.Join(dir, MetaFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
