package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/apigen/compiler"
	"github.com/syssam/apigen/compiler/gen"
	"github.com/syssam/apigen/log"
)

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch schema",
		Short: "Resolve the document and write the outputs on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			w := &watcher{
				path:     args[0],
				cfg:      cfg,
				log:      a.log,
				out:      cmd.OutOrStdout(),
				debounce: debounce,
			}
			return w.run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "wait for writes to settle before rebuilding")
	return cmd
}

// watcher rebuilds a document when its file changes and reports the
// relations that changed since the previous build.
type watcher struct {
	path     string
	cfg      *gen.Config
	log      *log.Logger
	out      io.Writer
	debounce time.Duration

	prev *gen.Snapshot
}

// build compiles the document, writes its outputs and returns the relation
// changes since the previous successful build.
func (w *watcher) build(ctx context.Context) ([]gen.Change, error) {
	r, err := compiler.Load(w.path, w.cfg, compiler.WithLogger(w.log))
	if err != nil {
		return nil, err
	}
	if err := r.Write(ctx); err != nil {
		return nil, err
	}
	next := r.Snapshot()
	var changes []gen.Change
	if w.prev != nil {
		changes = w.prev.Diff(next)
	}
	w.prev = next
	return changes, nil
}

func (w *watcher) rebuild(ctx context.Context) {
	changes, err := w.build(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("rebuild")
		_, _ = fmt.Fprintf(w.out, "error: %v\n", err)
		return
	}
	for _, c := range changes {
		w.log.Info().Str("type", c.Type).Str("field", c.Field).Str("old", c.Old).Str("new", c.New).Msg("relation changed")
		_, _ = fmt.Fprintln(w.out, c)
	}
	_, _ = fmt.Fprintf(w.out, "%s: rebuilt, %d relation changes\n", w.path, len(changes))
}

// run builds the document once and then on every write until ctx is done.
func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	// Editors replace the file on save, watch its directory.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.rebuild(ctx)

	target := filepath.Clean(w.path)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.log.Debug().Str("event", ev.Op.String()).Msg("schema changed")
			settle = time.After(w.debounce)
		case <-settle:
			settle = nil
			w.rebuild(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watch")
		}
	}
}
