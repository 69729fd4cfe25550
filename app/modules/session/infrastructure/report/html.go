package sessionreport

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Mode}} scores</title>
<style>
table { width: 100%; text-align: center; border-collapse: collapse; }
tr:nth-child(2n) { color: rgb(128, 128, 128); }
tr { border: 1px solid rgb(190, 190, 190); }
th { color: #a6acf3; }
.biggest { color: green; }
.smallest { color: red; }
.totals { font-weight: bold; }
</style>
</head>
<body>
<table>
<tr>{{range .Players}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .}}<td{{with .Class}} class="{{.}}"{{end}}>{{.Text}}</td>{{end}}</tr>
{{- end}}
<tr class="totals">{{range .Totals}}<td{{with .Class}} class="{{.}}"{{end}}>{{.Text}}</td>{{end}}</tr>
{{- if .Radlci}}
<tr class="radlci">{{range .Radlci}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
</body>
</html>
`))

// RenderHTML writes s as a standalone HTML page.
func RenderHTML(w io.Writer, s Sheet) error {
	if err := pageTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// HTML renders r into a string.
func HTML(r sessiontypes.Report) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, FromReport(r)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
