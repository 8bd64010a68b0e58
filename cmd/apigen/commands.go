package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/apigen/compiler"
	"github.com/syssam/apigen/compiler/gen"
	"github.com/syssam/apigen/dialect/sql/schema"
)

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve schema [schema...]",
		Short: "Resolve the relations of the documents and write the outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			runs, err := compiler.Generate(cmd.Context(), cfg, paths, compiler.WithLogger(a.log))
			if err != nil {
				return err
			}
			for _, r := range runs {
				printWarnings(cmd, r)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entities, %d warnings -> %s\n", r.Path, r.Graph.Len(), len(r.Warnings), r.Config.Target)
			}
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check schema [schema...]",
		Short: "Resolve the relations of the documents without writing outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			var errs []error
			for _, path := range paths {
				r, err := a.load(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				printWarnings(cmd, r)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			return errors.Join(errs...)
		},
	}
}

func (a *app) planCmd() *cobra.Command {
	var (
		since         string
		allowDrop     bool
		allowNotNull  bool
		allowBreaking bool
	)
	cmd := &cobra.Command{
		Use:   "plan schema",
		Short: "Print the statements that create the relational schema of the document",
		Long: `Print the statements that create the relational schema of the document
in an empty database of the configured dialect. With --since, the schema is
compared to a snapshot of a previous run and unsafe changes fail the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.load(args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, r)
			tables, err := schema.NewTables(r.Graph)
			if err != nil {
				return err
			}
			if since != "" {
				prev, err := gen.LoadSnapshot(since)
				if err != nil {
					return fmt.Errorf("load snapshot: %w", err)
				}
				prevTables, err := schema.Tables(prev)
				if err != nil {
					return err
				}
				var opts []schema.ValidateOption
				if allowDrop {
					opts = append(opts, schema.AllowDrop())
				}
				if allowNotNull {
					opts = append(opts, schema.AllowNullToNotNull())
				}
				res := schema.ValidateDiff(prevTables, tables, opts...)
				if res.HasErrors() || res.HasWarnings() {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), res)
				}
				if res.HasErrors() && !allowBreaking {
					return fmt.Errorf("unsafe changes since %s", since)
				}
			}
			plan, err := schema.Plan(cmd.Context(), r.Graph.Dialect, tables)
			if err != nil {
				return err
			}
			for _, stmt := range schema.Statements(plan) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&since, "since", "", "snapshot.msgpack of a previous run to validate the changes against")
	f.BoolVar(&allowDrop, "allow-drop", false, "report dropped tables, columns and indexes as warnings")
	f.BoolVar(&allowNotNull, "allow-not-null", false, "report nullable columns becoming NOT NULL as warnings")
	f.BoolVar(&allowBreaking, "allow-breaking", false, "print unsafe changes without failing")
	return cmd
}
