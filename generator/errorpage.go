package generator

import (
	"fmt"
	"html"
	"strings"
)

// ErrorReport describes a run that never reached the database.
type ErrorReport struct {
	Database string
	User     string
	// ConfigHint names where connection parameters are set, for the remediation list.
	ConfigHint string
	// Failures holds one message per connection method, in try order.
	Failures []string
}

// ErrorPage renders the diagnostic page written in place of the schema
// document when no connection method succeeded.
func ErrorPage(report ErrorReport, opts ...Option) []byte {
	o := buildOptions(opts)
	var builder strings.Builder

	builder.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	builder.WriteString("    <meta charset=\"UTF-8\">\n")
	builder.WriteString(fmt.Sprintf("    <title>%s - Error</title>\n", html.EscapeString(o.title)))
	builder.WriteString(`    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #cc0000; }
        .error { background-color: #ffeeee; padding: 10px; border: 1px solid #cc0000; margin: 10px 0; }
        pre { background-color: #f5f5f5; padding: 10px; overflow: auto; }
    </style>
`)
	builder.WriteString("</head>\n<body>\n")
	builder.WriteString("    <h1>Error Connecting to Database</h1>\n")
	builder.WriteString("    <p>The schema diagram generator could not connect to the database. Please check your PostgreSQL configuration.</p>\n")
	builder.WriteString("    <h2>Error Details</h2>\n")

	for i, failure := range report.Failures {
		builder.WriteString("    <div class=\"error\">\n")
		builder.WriteString(fmt.Sprintf("        <h3>Connection Method %d</h3>\n", i+1))
		builder.WriteString(fmt.Sprintf("        <pre>%s</pre>\n", html.EscapeString(failure)))
		builder.WriteString("    </div>\n")
	}

	configHint := report.ConfigHint
	if configHint == "" {
		configHint = "the PG* environment variables"
	}

	builder.WriteString("    <h2>Possible Solutions</h2>\n")
	builder.WriteString("    <ol>\n")
	builder.WriteString("        <li>Ensure PostgreSQL is running</li>\n")
	builder.WriteString(fmt.Sprintf("        <li>Check that the database '%s' exists</li>\n", html.EscapeString(report.Database)))
	builder.WriteString(fmt.Sprintf("        <li>Update the PostgreSQL connection parameters in %s</li>\n", html.EscapeString(configHint)))
	builder.WriteString(fmt.Sprintf("        <li>Set the correct password for the %s user</li>\n", html.EscapeString(report.User)))
	builder.WriteString("    </ol>\n")
	builder.WriteString("</body>\n</html>\n")

	return []byte(builder.String())
}
