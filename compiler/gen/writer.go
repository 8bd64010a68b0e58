package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Files written to the target directory.
const (
	ModelJSONFile = "model.json"
	ModelYAMLFile = "model.yaml"
	SnapshotFile  = "snapshot.msgpack"
	SchemaSQLFile = "schema.sql"
)

// Output is one file rendered from a resolved graph.
type Output struct {
	// Name is the file path relative to the target directory.
	Name string
	// Phase names the output in errors and logs.
	Phase string
	// Feature, if set, is the feature that enables the output.
	Feature string
	// Render renders the file content.
	Render func(context.Context, *Graph) ([]byte, error)
}

// Outputs holds the outputs written for every run.
var Outputs = []Output{
	{
		Name:  ModelJSONFile,
		Phase: "model",
		Render: func(_ context.Context, g *Graph) ([]byte, error) {
			return NewSnapshot(g).JSON()
		},
	},
	{
		Name:    ModelYAMLFile,
		Phase:   "model",
		Feature: FeatureYAML.Name,
		Render: func(_ context.Context, g *Graph) ([]byte, error) {
			return NewSnapshot(g).YAML()
		},
	},
	{
		Name:    SnapshotFile,
		Phase:   "snapshot",
		Feature: FeatureSnapshot.Name,
		Render: func(_ context.Context, g *Graph) ([]byte, error) {
			return NewSnapshot(g).Msgpack()
		},
	},
}

// Writer writes the outputs of a resolved graph in parallel.
type Writer struct {
	graph   *Graph
	outputs []Output
	outDir  string
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks the written files.
type WriterMetrics struct {
	FilesWritten int
	TotalBytes   int64
	Files        []string
}

// NewWriter creates a writer for the default outputs and the given extra
// outputs. Files are written to the graph's target directory.
func NewWriter(g *Graph, extra ...Output) *Writer {
	outputs := make([]Output, 0, len(Outputs)+len(extra))
	outputs = append(outputs, Outputs...)
	outputs = append(outputs, extra...)
	return &Writer{
		graph:   g,
		outputs: outputs,
		outDir:  g.Target,
		workers: g.workers(),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() *WriterMetrics {
	return w.metrics
}

// Write renders and writes all enabled outputs. Outputs of disabled
// features left by previous runs are removed first.
func (w *Writer) Write(ctx context.Context) error {
	if w.outDir == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return NewGenerationError("write", w.outDir, "create output directory", err)
	}
	if err := cleanupFeatures(w.graph.Config); err != nil {
		return NewGenerationError("cleanup", "", "", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, o := range w.outputs {
		if o.Feature != "" && !w.graph.HasFeature(o.Feature) {
			continue
		}
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(ctx, o)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders and writes a single output.
func (w *Writer) writeFile(ctx context.Context, o Output) error {
	data, err := o.Render(ctx, w.graph)
	if err != nil {
		return NewGenerationError(o.Phase, o.Name, "render", err)
	}
	path := filepath.Join(w.outDir, o.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewGenerationError(o.Phase, o.Name, "create directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewGenerationError(o.Phase, o.Name, fmt.Sprintf("write %s", path), err)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(data))
	w.metrics.Files = append(w.metrics.Files, o.Name)
	w.mu.Unlock()
	return nil
}
