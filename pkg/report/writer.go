package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders report models to HTML
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded report templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("reports").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// RenderProtocol writes the protocol report HTML to w
func (r *Renderer) RenderProtocol(w io.Writer, rep *ProtocolReport) error {
	if err := r.templates.ExecuteTemplate(w, "protocol.html.tmpl", rep); err != nil {
		return fmt.Errorf("failed to render protocol report: %w", err)
	}
	return nil
}

// RenderBrowser writes the browser report HTML to w
func (r *Renderer) RenderBrowser(w io.Writer, rep *BrowserReport) error {
	if err := r.templates.ExecuteTemplate(w, "browser.html.tmpl", rep); err != nil {
		return fmt.Errorf("failed to render browser report: %w", err)
	}
	return nil
}

// FileName builds the report file name: <TEST_TYPE>_<AUT>_<SCENARIO>_report.html
func FileName(testType, aut, scenario string) string {
	return fmt.Sprintf("%s_%s_%s_report.html", strings.ToUpper(testType), aut, scenario)
}

// WriteProtocol renders the protocol report into the results directory and
// returns the written file path
func (r *Renderer) WriteProtocol(resultsDir string, rep *ProtocolReport) (string, error) {
	path := filepath.Join(resultsDir, FileName(rep.Meta.TestType, rep.Meta.AUT, rep.Meta.Scenario))
	return path, r.writeFile(path, func(w io.Writer) error { return r.RenderProtocol(w, rep) })
}

// WriteBrowser renders the browser report into the results directory and
// returns the written file path
func (r *Renderer) WriteBrowser(resultsDir string, rep *BrowserReport) (string, error) {
	path := filepath.Join(resultsDir, FileName(rep.Meta.TestType, rep.Meta.AUT, rep.Meta.Scenario))
	return path, r.writeFile(path, func(w io.Writer) error { return r.RenderBrowser(w, rep) })
}

func (r *Renderer) writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"fmtMs": func(v float64) string {
			if v == 0 {
				return "—"
			}
			return fmt.Sprintf("%.1f ms", v)
		},
		"fmtCLS": func(v float64) string {
			return fmt.Sprintf("%.3f", v)
		},
		"fmtPct": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v)
		},
		"fmtCount": func(v float64) string {
			return fmt.Sprintf("%.0f", v)
		},
		"fmtBytes": func(v float64) string {
			switch {
			case v >= 1<<30:
				return fmt.Sprintf("%.2f GB", v/(1<<30))
			case v >= 1<<20:
				return fmt.Sprintf("%.2f MB", v/(1<<20))
			case v >= 1<<10:
				return fmt.Sprintf("%.2f KB", v/(1<<10))
			default:
				return fmt.Sprintf("%.0f B", v)
			}
		},
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return "—"
			}
			return t.Format("2006-01-02 15:04:05 MST")
		},
		"fmtDur": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
	}
}
