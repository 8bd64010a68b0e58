// Package compiler runs apigen over OpenAPI documents. Each document gets
// its own Run, which loads the document, builds and resolves its graph and
// writes the outputs to the target directory.
//
//	cfg, err := gen.NewConfig(gen.WithEntitySuffix("Entity"), gen.WithTarget("./var/model"))
//	if err != nil {
//		return err
//	}
//	runs, err := compiler.Generate(ctx, cfg, []string{"openapi.yaml"})
package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/apigen/compiler/gen"
	"github.com/syssam/apigen/compiler/load"
	"github.com/syssam/apigen/dialect/sql/schema"
	"github.com/syssam/apigen/log"
)

// Run is the compilation of one document.
type Run struct {
	// ID identifies the run in logs.
	ID uuid.UUID
	// Path is the path of the document.
	Path     string
	Config   *gen.Config
	Document *load.Document
	Graph    *gen.Graph
	// Warnings are the non-fatal findings of the resolver.
	Warnings []gen.Warning

	log *log.Logger
}

// Option configures a Run.
type Option func(*options)

type options struct {
	log *log.Logger
}

// WithLogger sets the logger of the run. It defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Load parses the document at path, builds its graph and resolves the
// relations. Malformed documents are reported as a *gen.SchemaError.
func Load(path string, cfg *gen.Config, opts ...Option) (*Run, error) {
	o := &options{log: log.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = log.Nop()
	}
	r := &Run{ID: uuid.New(), Path: path, Config: cfg}
	r.log = o.log.Child("run", r.ID.String(), "schema", path)

	start := time.Now()
	r.log.Info().Msg("load schema")
	doc, err := load.ParseFile(path)
	switch {
	case errors.Is(err, load.ErrMalformed):
		return nil, gen.NewSchemaError("", "", path, err)
	case err != nil:
		return nil, fmt.Errorf("compiler: %w", err)
	}
	r.Document = doc
	if r.Graph, err = gen.NewGraph(cfg, doc); err != nil {
		return nil, err
	}
	r.Warnings, err = r.Graph.Resolve(gen.WithLogger(r.log))
	if err != nil {
		r.log.Error().Err(err).Msg("resolve relations")
		return nil, err
	}
	r.log.Info().
		Int("types", r.Graph.Len()).
		Int("warnings", len(r.Warnings)).
		Dur("took", time.Since(start)).
		Msg("relations resolved")
	return r, nil
}

// Snapshot returns the snapshot of the resolved graph.
func (r *Run) Snapshot() *gen.Snapshot {
	return gen.NewSnapshot(r.Graph)
}

// DDLOutput renders the CREATE statements of the configured dialect as
// schema.sql when the ddl feature is enabled.
var DDLOutput = gen.Output{
	Name:    gen.SchemaSQLFile,
	Phase:   "ddl",
	Feature: gen.FeatureDDL.Name,
	Render: func(ctx context.Context, g *gen.Graph) ([]byte, error) {
		return schema.DDL(ctx, g.Dialect, gen.NewSnapshot(g))
	},
}

// Write writes the outputs of the run to the configured target directory.
func (r *Run) Write(ctx context.Context) error {
	w := gen.NewWriter(r.Graph, DDLOutput)
	if err := w.Write(ctx); err != nil {
		r.log.Error().Err(err).Msg("write outputs")
		return err
	}
	m := w.Metrics()
	r.log.Info().
		Int("files", m.FilesWritten).
		Int64("bytes", m.TotalBytes).
		Str("target", r.Config.Target).
		Msg("outputs written")
	return nil
}

// Generate compiles the documents concurrently and writes their outputs.
// With more than one document, each one is written to a subdirectory of
// the target named after the document file.
//
//	openapi/blog.yaml -> <target>/blog
func Generate(ctx context.Context, cfg *gen.Config, paths []string, opts ...Option) ([]*Run, error) {
	if len(paths) == 0 {
		return nil, gen.NewConfigError("Paths", nil, "no schema document given")
	}
	runs := make([]*Run, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		c := cfg
		if len(paths) > 1 {
			cp := *cfg
			cp.Target = filepath.Join(cfg.Target, stem(path))
			c = &cp
		}
		eg.Go(func() error {
			r, err := Load(path, c, opts...)
			if err != nil {
				return err
			}
			if err := r.Write(ctx); err != nil {
				return err
			}
			runs[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// stem returns the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
