package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// Exporter names
const (
	ExportText      = "text"
	ExportCSV       = "csv"
	ExportJSON      = "json"
	ExportTearSheet = "tearsheet" // 차트 PDF, 구현체가 등록된 경우에만
)

// DefaultExports is used when nothing is requested
var DefaultExports = []string{ExportText, ExportCSV, ExportJSON}

// Artifact is what exporters render
type Artifact struct {
	Tag        string
	ConfigHash string
	Result     *analysis.Result
}

// Exporter writes one kind of artifact under dirs and returns the written paths
type Exporter interface {
	Name() string
	Export(ctx context.Context, dirs Dirs, a Artifact) ([]string, error)
}

// optional names a capability may fill later, requesting them only warns
var optional = map[string]bool{ExportTearSheet: true}

// =============================================================================
// Registry
// =============================================================================

// Registry selects exporters by name
// ⭐ 분석 코어는 exporter를 호출하지 않음 (CLI/API에서만 사용)
type Registry struct {
	exporters map[string]Exporter
	logger    *logger.Logger
}

// NewRegistry creates a registry with the text, csv and json exporters
func NewRegistry(log *logger.Logger) *Registry {
	r := &Registry{
		exporters: make(map[string]Exporter),
		logger:    log,
	}
	r.Register(textExporter{})
	r.Register(csvExporter{})
	r.Register(jsonExporter{})
	return r
}

// Register adds or replaces an exporter
func (r *Registry) Register(e Exporter) {
	r.exporters[e.Name()] = e
}

// Names returns the registered exporter names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exporters))
	for n := range r.exporters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve maps requested names to exporters. Missing optional ones become warnings.
func (r *Registry) Resolve(names []string) ([]Exporter, []string, error) {
	if len(names) == 0 {
		names = DefaultExports
	}

	var (
		out      []Exporter
		warnings []string
		seen     = make(map[string]bool)
	)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if e, ok := r.exporters[name]; ok {
			out = append(out, e)
			continue
		}
		if optional[name] {
			warnings = append(warnings, fmt.Sprintf("%s exporter is not available in this build, skipped", name))
			continue
		}
		return nil, nil, fmt.Errorf("unknown exporter %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return out, warnings, nil
}

// Export runs the requested exporters into base and returns every written path
func (r *Registry) Export(ctx context.Context, base string, names []string, a Artifact) ([]string, []string, error) {
	exporters, warnings, err := r.Resolve(names)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		r.logger.Warn(w)
	}

	dirs, err := EnsureOutputDirs(base)
	if err != nil {
		return nil, warnings, err
	}

	var written []string
	for _, e := range exporters {
		if err := ctx.Err(); err != nil {
			return written, warnings, err
		}
		paths, err := e.Export(ctx, dirs, a)
		if err != nil {
			return written, warnings, fmt.Errorf("%s export: %w", e.Name(), err)
		}
		written = append(written, paths...)
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id": a.Result.RunID,
		"tag":    a.Tag,
		"files":  len(written),
		"dir":    base,
	}).Info("Artifacts written")

	return written, warnings, nil
}

// =============================================================================
// Built-in exporters
// =============================================================================

type textExporter struct{}

func (textExporter) Name() string { return ExportText }

func (textExporter) Export(ctx context.Context, dirs Dirs, a Artifact) ([]string, error) {
	path := filepath.Join(dirs.Base, fmt.Sprintf("report_%s.txt", a.Tag))
	if err := writeFile(path, func(w io.Writer) error { return WriteText(w, a) }); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

type csvExporter struct{}

func (csvExporter) Name() string { return ExportCSV }

func (csvExporter) Export(ctx context.Context, dirs Dirs, a Artifact) ([]string, error) {
	p, r := a.Result.Panel, a.Result.Report

	files := []struct {
		path string
		fn   func(io.Writer) error
	}{
		{filepath.Join(dirs.Tables, fmt.Sprintf("core_metrics_%s.csv", a.Tag)), CoreTable(p, r).WriteCSV},
		{filepath.Join(dirs.Tables, fmt.Sprintf("benchmark_summary_%s.csv", a.Tag)), RelativeTable(p, r).WriteCSV},
		{filepath.Join(dirs.Tables, fmt.Sprintf("panel_%s.csv", a.Tag)), func(w io.Writer) error { return WritePanelCSV(w, p) }},
	}

	perColumn := ColumnSeries(p, a.Result.Request.Options)
	for _, col := range p.Names {
		for _, kind := range []string{"equity", "drawdowns", "rolling_vol", "rolling_sharpe"} {
			s := perColumn[col][kind]
			files = append(files, struct {
				path string
				fn   func(io.Writer) error
			}{
				filepath.Join(dirs.Series, fmt.Sprintf("%s_%s_%s.csv", col, kind, a.Tag)),
				func(w io.Writer) error { return WriteSeriesCSV(w, s) },
			})
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFile(f.path, f.fn); err != nil {
			return written, err
		}
		written = append(written, f.path)
	}
	return written, nil
}

type jsonExporter struct{}

func (jsonExporter) Name() string { return ExportJSON }

func (jsonExporter) Export(ctx context.Context, dirs Dirs, a Artifact) ([]string, error) {
	path := filepath.Join(dirs.Base, fmt.Sprintf("report_%s.json", a.Tag))
	doc := struct {
		Tag        string `json:"tag"`
		ConfigHash string `json:"config_hash,omitempty"`
		*analysis.Result
	}{a.Tag, a.ConfigHash, a.Result}

	err := writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}
