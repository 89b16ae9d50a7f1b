package reporting

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num":       formatNumber,
	"stoppages": stoppageSummary,
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Line {{.Doc.Line}} - {{.Doc.Day}}</title>
<style>
body { font-family: sans-serif; margin: 24px; }
.stats { display: flex; gap: 24px; margin: 16px 0; }
.stat { border: 1px solid #ccc; padding: 8px 16px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
td.text, th.text { text-align: left; }
tr.miss td.actual { color: #b00020; }
tfoot td { font-weight: bold; }
</style>
</head>
<body>
<header>
<h1>Line {{.Doc.Line}}</h1>
<p>{{.Doc.Day}}{{if .Doc.Shift}} &middot; shift {{.Doc.Shift}}{{end}}</p>
</header>
<section class="stats">
<div class="stat"><span>Total produced</span><strong>{{num .Doc.Totals.Actual}}</strong></div>
<div class="stat"><span>Efficiency</span><strong>{{.Doc.EfficiencyLabel}}</strong></div>
<div class="stat"><span>Unplanned downtime</span><strong>{{num .Doc.UnplannedMinutes}} min</strong></div>
</section>
{{if .Doc.Empty}}<p>No records for this day.</p>{{else}}
<table>
<thead><tr><th class="text">Hour</th><th class="text">Shift</th><th>Target</th><th>Actual</th><th>Cumulative</th><th class="text">Stoppages</th></tr></thead>
<tbody>
{{range .Doc.Rows}}<tr{{if not .MeetsTarget}} class="miss"{{end}}><td class="text">{{.Start}}{{if .End}} - {{.End}}{{end}}</td><td class="text">{{.Shift}}</td><td>{{num .Target}}</td><td class="actual">{{num .Actual}}</td><td>{{num .Cumulative}}</td><td class="text">{{stoppages .Stoppages}}</td></tr>
{{end}}</tbody>
<tfoot><tr><td class="text" colspan="2">Total</td><td>{{num .Doc.Totals.Target}}</td><td>{{num .Doc.Totals.Actual}}</td><td></td><td class="text">{{.Doc.Totals.StoppageCount}} stoppages</td></tr></tfoot>
</table>
{{end}}
{{if .Chart}}<figure><img alt="Stoppage pareto" src="{{.Chart}}"></figure>{{end}}
<footer><small>Report {{.Doc.ID}} generated {{.Doc.GeneratedAt.Format "2006-01-02 15:04"}}</small></footer>
</body>
</html>
`))

// RenderHTML renders the report document. The Pareto chart is embedded as a PNG data URI when
// the breakdown has any group.
func RenderHTML(doc Document) ([]byte, error) {
	data := struct {
		Doc   Document
		Chart template.URL
	}{Doc: doc}

	if len(doc.Pareto.Groups) > 0 {
		png, err := RenderChart(doc.Pareto)
		if err != nil {
			return nil, err
		}
		data.Chart = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}
	return buf.Bytes(), nil
}

func stoppageSummary(stoppages []models.Stoppage) string {
	parts := make([]string, 0, len(stoppages))
	for _, s := range stoppages {
		label := s.Description
		if s.Code != "" {
			label = s.Code + " " + label
		}
		parts = append(parts, fmt.Sprintf("%s (%s min)", strings.TrimSpace(label), formatNumber(s.MinutesLost)))
	}
	return strings.Join(parts, "; ")
}
