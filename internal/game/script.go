package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// LoadScript reads a command script from a file. The format follows the
// extension: .jsonl or .ndjson for one JSON command per line, anything else
// for a YAML list. A trailing .zst means the file is zstd-compressed.
func LoadScript(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadScript(f, filepath.Base(path))
}

// ReadScript decodes a script, choosing the format from name
func ReadScript(r io.Reader, name string) ([]Command, error) {
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
		name = strings.TrimSuffix(name, ".zst")
	}

	var (
		cmds []Command
		err  error
	)
	switch filepath.Ext(name) {
	case ".jsonl", ".ndjson":
		cmds, err = readJSONL(r)
	default:
		cmds, err = readYAML(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for i, c := range cmds {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: command %d: %w", name, i+1, err)
		}
	}
	return cmds, nil
}

func readYAML(r io.Reader) ([]Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	if err := yaml.Unmarshal(data, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

func readJSONL(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var c Command
		if err := json.Unmarshal(text, &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmds = append(cmds, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// ResultLog writes results as JSON lines, zstd-compressed when asked
type ResultLog struct {
	f   io.Closer
	enc *zstd.Encoder
	w   *bufio.Writer
}

// CreateResultLog opens path for writing. Paths ending in .zst are
// compressed.
func CreateResultLog(path string) (*ResultLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := &ResultLog{f: f}
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		l.enc = enc
		l.w = bufio.NewWriter(enc)
	} else {
		l.w = bufio.NewWriter(f)
	}
	return l, nil
}

// Write appends one result
func (l *ResultLog) Write(res Result, rejection error) error {
	entry := struct {
		Result
		Error string `json:"error,omitempty"`
	}{Result: res}
	if rejection != nil {
		entry.Error = rejection.Error()
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Close flushes and closes the log
func (l *ResultLog) Close() error {
	err := l.w.Flush()
	if l.enc != nil {
		if cerr := l.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
