// Package runlog records per-run experiment artifacts under the .echotext/
// runs directory: the parameters used, rendered plots, raw result matrices
// and a human-readable report.
package runlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/dotdir"
)

const (
	paramsFile = "params.toml"
	reportFile = "report.md"

	plotsDir = "plots"
	dataDir  = "data"
)

var (
	// ErrNoRunDir is returned when the run artifact directory could not be resolved.
	ErrNoRunDir = errors.New("run directory not resolved")
)

// Recorder writes artifacts for a single experiment run.
type Recorder struct {
	runID  string
	dir    string
	logger *zap.Logger
}

// NewRecorder resolves (and creates) the artifact directory for runID and
// returns a Recorder bound to it.
func NewRecorder(overrideDir, runID string, logger *zap.Logger) (*Recorder, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}

	ddm := dotdir.NewManager()
	dir, err := ddm.RunDir(overrideDir, runID)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, ErrNoRunDir
	}

	return &Recorder{
		runID:  runID,
		dir:    dir,
		logger: logger,
	}, nil
}

// RunID returns the run identifier this recorder is bound to.
func (r *Recorder) RunID() string {
	return r.runID
}

// Dir returns the absolute path of the run artifact directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// SaveParams encodes params as TOML into params.toml.
func (r *Recorder) SaveParams(params any) error {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(params); err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}

	path := filepath.Join(r.dir, paramsFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing params: %w", err)
	}

	r.logger.Debug("saved run params", zap.String("path", path))
	return nil
}

// SavePlot writes a rendered plot into plots/<name>.png. The encode function
// receives the destination writer; pass raster Image.EncodePNG or any other
// PNG encoder.
func (r *Recorder) SavePlot(name string, encode func(io.Writer) error) error {
	dir := filepath.Join(r.dir, plotsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating plots directory: %w", err)
	}

	path := filepath.Join(dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	defer f.Close()

	if err := encode(f); err != nil {
		return fmt.Errorf("encoding plot %s: %w", name, err)
	}

	r.logger.Debug("saved run plot", zap.String("path", path))
	return nil
}

// SaveMatrix dumps a result matrix into data/<name>.csv, one row per line.
func (r *Recorder) SaveMatrix(name string, m mat.Matrix) error {
	dir := filepath.Join(r.dir, dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing data row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing data file: %w", err)
	}

	r.logger.Debug("saved run matrix",
		zap.String("path", path),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
	)
	return nil
}

// SaveRecords writes string records into data/<name>.csv.
func (r *Recorder) SaveRecords(name string, records [][]string) error {
	dir := filepath.Join(r.dir, dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}

	r.logger.Debug("saved run records",
		zap.String("path", path),
		zap.Int("rows", len(records)),
	)
	return nil
}

// LoadMatrix reads a matrix previously written with SaveMatrix from a run
// artifact directory.
func LoadMatrix(dir, name string) (*mat.Dense, error) {
	f, err := os.Open(filepath.Join(dir, dataDir, name+".csv"))
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("data file %s is empty", name)
	}

	rows, cols := len(records), len(records[0])
	m := mat.NewDense(rows, cols, nil)
	for i, record := range records {
		if len(record) != cols {
			return nil, fmt.Errorf("data file %s: row %d has %d fields, want %d", name, i, len(record), cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("data file %s: parsing row %d col %d: %w", name, i, j, err)
			}
			m.Set(i, j, v)
		}
	}

	return m, nil
}

// LoadRecords reads string records previously written with SaveRecords.
func LoadRecords(dir, name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(dir, dataDir, name+".csv"))
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return records, nil
}

// SaveReport writes the run report markdown into report.md.
func (r *Recorder) SaveReport(markdown string) error {
	path := filepath.Join(r.dir, reportFile)
	if err := os.WriteFile(path, []byte(markdown), 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	r.logger.Debug("saved run report", zap.String("path", path))
	return nil
}

// LoadReport reads report.md from a run artifact directory.
func LoadReport(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, reportFile))
	if err != nil {
		return "", fmt.Errorf("reading report: %w", err)
	}
	return string(data), nil
}

// LoadParams decodes params.toml from a run artifact directory into out.
func LoadParams(dir string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, paramsFile))
	if err != nil {
		return fmt.Errorf("reading params: %w", err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing params: %w", err)
	}
	return nil
}
