package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/apigen/compiler"
	"github.com/syssam/apigen/compiler/gen"
	"github.com/syssam/apigen/log"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	v   *viper.Viper
	log *log.Logger
}

// flags bound to viper keys. Keys of the config file and the APIGEN_*
// environment variables use the same names, APIGEN_PLURAL_TABLES for
// plural-tables.
var persistent = []struct {
	name, usage string
	value       any
}{
	{"bundle", "Symfony bundle of the entities", ""},
	{"suffix", "suffix of the schema objects that are entities", ""},
	{"target", "output directory", ""},
	{"dialect", "SQL dialect: mysql, postgres or sqlite", ""},
	{"features", "features to enable: yaml, snapshot, ddl, strict", []string(nil)},
	{"strict", "fail on resolver warnings", false},
	{"workers", "outputs written in parallel", 0},
	{"plural-tables", "use plural table names", false},
	{"log.level", "log level: debug, info, warn, error", "info"},
	{"log.file", "also write JSON logs to this file, rotated", ""},
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: log.Default()}
	cmd := &cobra.Command{
		Use:           "apigen",
		Short:         "Infer the Doctrine relational model of OpenAPI documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (default is .apigen.yaml in the working directory)")
	for _, p := range persistent {
		name := strings.ReplaceAll(p.name, ".", "-")
		switch v := p.value.(type) {
		case string:
			f.String(name, v, p.usage)
		case []string:
			f.StringSlice(name, v, p.usage)
		case bool:
			f.Bool(name, v, p.usage)
		case int:
			f.Int(name, v, p.usage)
		}
		_ = a.v.BindPFlag(p.name, f.Lookup(name))
	}
	cmd.AddCommand(
		a.resolveCmd(),
		a.checkCmd(),
		a.planCmd(),
		a.migrateCmd(),
		a.watchCmd(),
	)
	return cmd
}

// init reads the configuration and sets up the logger.
func (a *app) init(cmd *cobra.Command) error {
	def := gen.DefaultConfig()
	a.v.SetDefault("bundle", def.Bundle)
	a.v.SetDefault("target", def.Target)
	a.v.SetDefault("dialect", def.Dialect)
	a.v.SetDefault("workers", def.Workers)

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName(".apigen")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	a.v.SetEnvPrefix("APIGEN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	level, err := log.ParseLevel(a.v.GetString("log.level"))
	if err != nil {
		return err
	}
	opts := []log.Option{log.WithConsole(cmd.ErrOrStderr()), log.WithLevel(level)}
	if file := a.v.GetString("log.file"); file != "" {
		opts = append(opts, log.WithFile(log.DefaultRotate(file)))
	}
	a.log = log.New(opts...)
	log.SetDefault(a.log)
	return nil
}

// config returns the generator configuration of the invocation.
func (a *app) config() (*gen.Config, error) {
	features := lo.Compact(lo.FlatMap(a.v.GetStringSlice("features"), func(s string, _ int) []string {
		return lo.Map(strings.Split(s, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	}))
	opts := []gen.Option{
		gen.WithBundle(a.v.GetString("bundle")),
		gen.WithEntitySuffix(a.v.GetString("suffix")),
		gen.WithTarget(a.v.GetString("target")),
		gen.WithDialect(a.v.GetString("dialect")),
		gen.WithFeatureNames(features...),
		gen.WithStrict(a.v.GetBool("strict")),
		gen.WithPluralTables(a.v.GetBool("plural-tables")),
	}
	if n := a.v.GetInt("workers"); n > 0 {
		opts = append(opts, gen.WithWorkers(n))
	}
	c := gen.DefaultConfig()
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// load compiles one document with the configuration of the invocation.
func (a *app) load(path string) (*compiler.Run, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return compiler.Load(path, cfg, compiler.WithLogger(a.log))
}

func printWarnings(cmd *cobra.Command, r *compiler.Run) {
	for _, w := range r.Warnings {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "warning: %s: %s\n", r.Path, w)
	}
}
