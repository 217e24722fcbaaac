package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Tailer incrementally decodes samples appended to a results file that k6 is
// still writing. Only complete lines are consumed per poll; a partially
// written trailing line stays in the file for the next poll, so the parser
// never sees a line k6 is mid-write on.
type Tailer struct {
	path   string
	offset int64
	parser *Parser
}

// NewTailer creates a tailer for the results file at path
func NewTailer(path string, parser *Parser) *Tailer {
	if parser == nil {
		parser = NewParser(nil, false)
	}
	return &Tailer{path: path, parser: parser}
}

// Poll decodes the samples appended since the previous call. A missing file
// is not an error: k6 creates its output file shortly after launch.
func (t *Tailer) Poll() (*Results, error) {
	empty := &Results{Definitions: make(map[string]Definition)}

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek results file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return empty, nil
	}
	chunk := data[:end+1]

	results, err := t.parser.Parse(bytes.NewReader(chunk))
	if err != nil {
		return nil, err
	}
	t.offset += int64(len(chunk))
	return results, nil
}

// Offset returns the number of bytes consumed so far
func (t *Tailer) Offset() int64 {
	return t.offset
}
