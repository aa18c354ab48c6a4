package render

import (
	"fmt"
	"html/template"
	"strings"
)

// Fragment markup mirrors the page shell's section layout: summary, risk
// scoring, checklist, then the Q&A panel. Contextual escaping guards the
// model-supplied strings.
var reportTmpl = template.Must(template.New("report").Parse(`<section class="report">
<h1>{{.Title}}</h1>
{{- if .Failed}}
<div class="panel panel-error">
  <h2>Analysis Failed</h2>
  <p>Could not analyze document.</p>
</div>
{{- else}}
<div class="panel">
  <h2>Key Summary</h2>
  <p>{{.Summary}}</p>
</div>
<div class="panel">
  <h2>Clause Risk Scoring</h2>
{{- if .NoRisks}}
  <p class="no-risks">No significant risks were found.</p>
{{- else}}
{{- range .Risks}}
  <div class="risk risk-{{.Level}}">
    <blockquote>&quot;{{.Clause}}&quot;</blockquote>
    <p><strong>Reason:</strong> {{.Explanation}}</p>
  </div>
{{- end}}
{{- end}}
</div>
{{- if .Checklist}}
<div class="panel">
  <h2>Smart Checklist</h2>
  <ul class="checklist">
{{- range .Checklist}}
    <li><input type="checkbox" id="{{.Key}}" data-key="{{.Key}}"{{if .Done}} checked{{end}}><label for="{{.Key}}">{{.Label}}</label></li>
{{- end}}
  </ul>
</div>
{{- end}}
<div class="panel panel-chat" data-language="{{.Chat.Language}}">
  <h2>Interactive Q&amp;A</h2>
</div>
{{- end}}
</section>
`))

// HTML renders the report view tree to an HTML fragment suitable for
// swapping into the page shell.
func HTML(rep Report) (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, rep); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}
