package dspsr

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// TextResult names the psrtxt output and its log.
type TextResult struct {
	Text string
	Log  string
}

func (r TextResult) Forward() string { return r.Text }

func (r TextResult) BackingPaths() []string { return []string{r.Text, r.Log} }

// TextRunner invokes psrtxt, capturing stdout as the text dump.
type TextRunner struct {
	base   *runner.Base
	binary string
}

// NewTextRunner constructs a psrtxt runner.
func NewTextRunner(binary string, opts ...runner.Option) *TextRunner {
	if binary == "" {
		binary = "psrtxt"
	}
	return &TextRunner{base: runner.NewBase("psrtxt", opts...), binary: binary}
}

// Run executes psrtxt on req.FilePath. The text dump defaults to
// <output_dir>/<base>.txt and stderr goes to <base>.log.
func (r *TextRunner) Run(ctx context.Context, req runner.Request) (TextResult, error) {
	state, err := r.base.Begin(req)
	if err != nil {
		return TextResult{}, err
	}
	defer r.base.End()

	textName := req.OutputFileName
	if strings.TrimSpace(textName) == "" {
		textName = state.OutputBase + ".txt"
	}
	result := TextResult{
		Text: filepath.Join(state.OutputDir, textName),
		Log:  filepath.Join(state.OutputDir, state.OutputBase+".log"),
	}
	spec := runner.CommandSpec{
		Executable:  r.binary,
		Args:        append([]string{req.FilePath}, state.ExtraArgs...),
		LogFilePath: result.Log,
		StdoutPath:  result.Text,
	}
	return result, r.base.Execute(ctx, spec)
}

// LoadText parses a psrtxt dump. Each line holds whitespace separated
// numbers; the result is transposed so that element i is column i.
func LoadText(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrMissingArtifact, "psrtxt", "load", path, err)
		}
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "psrtxt", "load",
					fmt.Sprintf("%s:%d", path, line), err)
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, services.Wrap(services.ErrValidation, "psrtxt", "load",
				fmt.Sprintf("%s:%d has %d columns, want %d", path, line, len(row), len(rows[0])), nil)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols := make([][]float64, len(rows[0]))
	for c := range cols {
		cols[c] = make([]float64, len(rows))
		for r, row := range rows {
			cols[c][r] = row[c]
		}
	}
	return cols, nil
}
