package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/DeafMist/score-inspector/internal/pipeline"
)

const tmplReport = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Index}} · {{.RunID}}</title>
<style>
body{font-family:sans-serif;margin:24px;background:#fafafa;color:#222}
.run{font-family:monospace;font-size:12px;color:#666;margin-bottom:16px}
.card{background:#fff;border:1px solid #ddd;border-radius:6px;padding:12px 16px;margin-bottom:16px}
.card h1{font-size:20px;margin:8px 0}
.card a{color:#1a0dab;text-decoration:none}
.meta{display:flex;gap:8px;align-items:center;font-size:13px}
.fields{font-family:monospace;font-size:12px;color:#444;margin-top:6px}
details pre{font-size:11px;background:#f4f4f4;padding:8px;overflow:auto}
.error{background:#fdecea;border:1px solid #f5c2c0;color:#b71c1c;padding:10px 14px;border-radius:6px}
</style>
</head>
<body>
<div class="run" data-run-id="{{.RunID}}">run {{.RunID}} · index {{.Index}} · total {{.Total}} · hits {{.Hits}} · took {{.Took}}</div>
{{range $i, $c := .Cards}}
<div class="card" id="{{cardID $.RunID $i}}">
{{$c.ImageHTML}}
{{$c.HeadlineHTML}}
<div class="meta">{{$c.MetaHTML}}</div>
{{if $c.Fields}}<div class="fields">{{range $c.Fields}}<div>{{.Name}}: {{.Value}}</div>{{end}}</div>{{end}}
<details><summary>Show JSON</summary><pre>{{$c.Raw}}</pre></details>
</div>
{{end}}
{{if .Err}}<div class="error">presentation stopped after {{len .Cards}} of {{.Hits}} hits: {{.Err}}</div>{{end}}
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cardID": func(runID string, i int) string {
		return fmt.Sprintf("c_%s_%d", runID, i)
	},
}).Parse(tmplReport))

// HTML writes the report as one self-contained page.
func HTML(w io.Writer, rep *pipeline.Report) error {
	if err := reportTemplate.Execute(w, rep); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
