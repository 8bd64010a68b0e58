package schema

import (
	"fmt"
	"strings"
)

// ValidationError is a problem found in a table definition or in a change
// between two versions of the schema.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking marks changes that may lose or reject existing data.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the errors and warnings of a validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors reports if the validation failed.
func (r *ValidationResult) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports if the validation produced warnings.
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// HasBreakingChanges reports if any error or warning is breaking.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, errs := range [][]*ValidationError{r.Errors, r.Warnings} {
		for _, e := range errs {
			if e.Breaking {
				return true
			}
		}
	}
	return false
}

func (r *ValidationResult) errorf(t, c string, breaking bool, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: t, Column: c, Message: fmt.Sprintf(format, args...), Breaking: breaking})
}

func (r *ValidationResult) warnf(t, c string, breaking bool, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: t, Column: c, Message: fmt.Sprintf(format, args...), Breaking: breaking})
}

// String returns the result as an indented list.
func (r *ValidationResult) String() string {
	var b strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for _, e := range errs {
			b.WriteString("  - " + e.Error())
			if e.Breaking {
				b.WriteString(" [BREAKING]")
			}
			b.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if b.Len() == 0 {
		return "No issues found"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ValidateSchema checks that the tables form a consistent schema: every
// table has a primary key, names are unique, and every foreign key points
// to the primary key of a known table with a column of the same type.
func ValidateSchema(tables []*Table) *ValidationResult {
	r := &ValidationResult{}
	names := make(map[string]*Table, len(tables))
	for _, t := range tables {
		if _, ok := names[t.Name]; ok {
			r.errorf(t.Name, "", false, "duplicate table name")
		}
		names[t.Name] = t
	}
	for _, t := range tables {
		validateTable(r, t, names)
	}
	return r
}

func validateTable(r *ValidationResult, t *Table, tables map[string]*Table) {
	if len(t.PrimaryKey) == 0 {
		r.errorf(t.Name, "", false, "table has no primary key")
	}
	columns := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if columns[c.Name] {
			r.errorf(t.Name, c.Name, false, "duplicate column name")
		}
		columns[c.Name] = true
		if c.Type == TypeEnum && len(c.Enums) == 0 {
			r.errorf(t.Name, c.Name, false, "enum column without values")
		}
	}
	indexes := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if indexes[idx.Name] {
			r.errorf(t.Name, "", false, "duplicate index name %q", idx.Name)
		}
		indexes[idx.Name] = true
		for _, c := range idx.Columns {
			if !columns[c.Name] {
				r.errorf(t.Name, "", false, "index %q references non-existent column %q", idx.Name, c.Name)
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if !columns[c.Name] {
				r.errorf(t.Name, c.Name, false, "foreign key %q references non-existent column", fk.Symbol)
			}
		}
		ref, ok := tables[fk.RefTable.Name]
		if !ok {
			r.errorf(t.Name, "", false, "foreign key %q references non-existent table %q", fk.Symbol, fk.RefTable.Name)
			continue
		}
		if len(fk.Columns) != len(fk.RefColumns) {
			r.errorf(t.Name, "", false, "foreign key %q has %d columns and %d referenced columns", fk.Symbol, len(fk.Columns), len(fk.RefColumns))
			continue
		}
		for i, rc := range fk.RefColumns {
			c := fk.Columns[i]
			if _, ok := ref.Column(rc.Name); !ok || !rc.PrimaryKey() {
				r.errorf(t.Name, c.Name, false, "foreign key %q must reference the primary key of table %q, not %q", fk.Symbol, ref.Name, rc.Name)
				continue
			}
			if c.Type != rc.Type {
				r.errorf(t.Name, c.Name, false, "column type %s does not match referenced column %s.%s of type %s", c.Type, ref.Name, rc.Name, rc.Type)
			}
		}
		if !fk.Columns[0].Nullable && fk.OnDelete == SetNull {
			r.warnf(t.Name, fk.Columns[0].Name, false, "ON DELETE SET NULL on a NOT NULL column")
		}
	}
}

// ValidateOption configures ValidateDiff.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDrop          bool
	allowNullToNotNull bool
}

// AllowDrop reports dropped tables, columns and indexes as warnings instead
// of errors.
func AllowDrop() ValidateOption {
	return func(c *validateConfig) {
		c.allowDrop = true
	}
}

// AllowNullToNotNull reports nullable columns becoming NOT NULL as warnings
// instead of errors.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff compares the tables of two versions of a model and reports
// the changes that may break a database migrated to the current version.
//
//	result := schema.ValidateDiff(previous, current)
//	if result.HasErrors() {
//		return fmt.Errorf("unsafe schema change:\n%s", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	r := &ValidationResult{}
	report := func(allowed bool, t, c, format string, args ...any) {
		if allowed {
			r.warnf(t, c, true, format, args...)
		} else {
			r.errorf(t, c, true, format, args...)
		}
	}
	next := make(map[string]*Table, len(desired))
	for _, t := range desired {
		next[t.Name] = t
	}
	for _, prev := range current {
		t, ok := next[prev.Name]
		if !ok {
			report(cfg.allowDrop, prev.Name, "", "table will be dropped")
			continue
		}
		for _, pc := range prev.Columns {
			c, ok := t.Column(pc.Name)
			switch {
			case !ok:
				report(cfg.allowDrop, t.Name, pc.Name, "column will be dropped")
			case pc.Type != c.Type:
				report(false, t.Name, c.Name, "column type changing from %s to %s", pc.Type, c.Type)
			case pc.Nullable && !c.Nullable:
				report(cfg.allowNullToNotNull, t.Name, c.Name, "column changing from NULL to NOT NULL may fail on NULL values")
			case pc.Size > 0 && c.Size > 0 && c.Size < pc.Size:
				r.warnf(t.Name, c.Name, false, "column size reducing from %d to %d may truncate data", pc.Size, c.Size)
			case !pc.Unique && c.Unique:
				r.warnf(t.Name, c.Name, false, "adding UNIQUE constraint may fail on duplicate values")
			}
		}
		for _, c := range t.Columns {
			if _, ok := prev.Column(c.Name); !ok && !c.Nullable && c.Default == nil {
				r.warnf(t.Name, c.Name, false, "new NOT NULL column without default value may fail if the table has rows")
			}
		}
		for _, pidx := range prev.Indexes {
			if !hasIndex(t, pidx.Name) {
				report(cfg.allowDrop, t.Name, "", "index %q will be dropped", pidx.Name)
			}
		}
	}
	return r
}

func hasIndex(t *Table, name string) bool {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return true
		}
	}
	return false
}
