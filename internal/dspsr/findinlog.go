package dspsr

import (
	"fmt"
	"os"
	"strings"

	"pfbverify/internal/services"
)

// LogScanner recovers scalar values that tools only report in their logs.
// A value starts after the first Sep following the keyword and ends at the
// next Delimiter or line break.
type LogScanner struct {
	Sep       string
	Delimiter string
}

// DefaultLogScanner reads "key=value " pairs.
var DefaultLogScanner = LogScanner{Sep: "=", Delimiter: " "}

// Find returns the value reported for keyword in text.
func (s LogScanner) Find(text, keyword string) (string, error) {
	sep := s.Sep
	if sep == "" {
		sep = DefaultLogScanner.Sep
	}
	delim := s.Delimiter
	if delim == "" {
		delim = DefaultLogScanner.Delimiter
	}

	keyIdx := -1
	if keyword != "" {
		keyIdx = strings.Index(text, keyword)
	}
	if keyIdx < 0 {
		return "", services.Wrap(services.ErrNotFound, "find in log", "", fmt.Sprintf("couldn't find %q", keyword), nil)
	}
	rest := text[keyIdx+len(keyword):]
	sepIdx := strings.Index(rest, sep)
	if sepIdx < 0 {
		return "", services.Wrap(services.ErrNotFound, "find in log", "", fmt.Sprintf("no %q after %q", sep, keyword), nil)
	}
	rest = rest[sepIdx+len(sep):]
	end := len(rest)
	if i := strings.Index(rest, delim); i >= 0 {
		end = i
	}
	if i := strings.IndexAny(rest[:end], "\r\n"); i >= 0 {
		end = i
	}
	return rest[:end], nil
}

// FindInFile returns one value per keyword, in order.
func (s LogScanner) FindInFile(path string, keywords ...string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrMissingArtifact, "find in log", "read", path, err)
		}
		return nil, err
	}
	text := string(raw)
	values := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		v, err := s.Find(text, keyword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// FindInLog reads "keyword=value " pairs from the log at path.
func FindInLog(path string, keywords ...string) ([]string, error) {
	return DefaultLogScanner.FindInFile(path, keywords...)
}
