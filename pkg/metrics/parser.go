package metrics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// maxLineSize bounds a single NDJSON line. Browser runs tag samples with full
// URLs, so lines can get long, but anything past 1MB is garbage.
const maxLineSize = 1 << 20

// Parser decodes a k6 NDJSON stream into Results
type Parser struct {
	logger  *zap.Logger
	verbose bool // Log each malformed line instead of only the final count
}

// NewParser creates a parser. A nil logger disables diagnostics.
func NewParser(appLogger *zap.Logger, verbose bool) *Parser {
	if appLogger == nil {
		appLogger = zap.NewNop()
	}
	return &Parser{logger: appLogger, verbose: verbose}
}

// ParseFile decodes the NDJSON file at path
func (p *Parser) ParseFile(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	results, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return results, nil
}

// Parse decodes an NDJSON stream. Individual malformed lines are counted and
// skipped; only a read error on the underlying stream is returned as an error.
func (p *Parser) Parse(r io.Reader) (*Results, error) {
	results := &Results{
		Definitions: make(map[string]Definition),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			results.MalformedLines++
			if p.verbose {
				p.logger.Debug("Skipping malformed NDJSON line",
					zap.Int("line", lineNo),
					zap.Error(err))
			}
			continue
		}

		switch env.Type {
		case "Point":
			var data pointData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				results.MalformedLines++
				if p.verbose {
					p.logger.Debug("Skipping malformed point payload",
						zap.Int("line", lineNo),
						zap.String("metric", env.Metric),
						zap.Error(err))
				}
				continue
			}
			results.Samples = append(results.Samples, Sample{
				Metric: env.Metric,
				Time:   data.Time,
				Value:  data.Value,
				Tags:   data.Tags,
			})

		case "Metric":
			var data definitionData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				results.MalformedLines++
				continue
			}
			name := data.Name
			if name == "" {
				name = env.Metric
			}
			results.Definitions[name] = Definition{
				Name:     name,
				Type:     data.Type,
				Contains: data.Contains,
			}

		default:
			// Unknown envelope types from newer k6 versions are ignored,
			// not treated as corruption.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read NDJSON stream: %w", err)
	}

	if results.MalformedLines > 0 {
		p.logger.Warn("Skipped malformed NDJSON lines",
			zap.Int("skipped", results.MalformedLines),
			zap.Int("samples", len(results.Samples)))
	}

	return results, nil
}
