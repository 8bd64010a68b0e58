package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Add common initialisms from golint and more.
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HCL", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC",
		"MB", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO",
		"TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID",
		"VM", "XML", "XMPP", "XSRF", "XSS",
	} {
		rules.AddAcronym(w)
	}
	return rules
}

// snake converts the given name to snake_case, e.g. "createdAt" to "created_at".
func snake(s string) string {
	return strcase.ToSnake(s)
}

// pascal converts the given name to PascalCase, e.g. "created_at" to "CreatedAt".
func pascal(s string) string {
	return strcase.ToCamel(s)
}

// plural returns the plural form of a snake_case name.
func plural(s string) string {
	return rules.Pluralize(s)
}

// singular returns the singular form of a snake_case name.
func singular(s string) string {
	return rules.Singularize(s)
}

// idColumn returns the foreign-key column name for name.
//
//	idColumn("author")   // author_id
//	idColumn("owner_id") // owner_id
func idColumn(name string) string {
	name = snake(name)
	if strings.HasSuffix(name, "_id") {
		return name
	}
	return name + "_id"
}
