package report

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
)

// WriteHTML writes a self-contained page listing every gene with its rank
// and coverage. The table can be searched and sorted in the browser.
func WriteHTML(w io.Writer, d *Data, opts Options) error {
	opts = opts.withDefaults()

	bw := bufio.NewWriter(w)
	data := struct {
		Opts      Options
		Data      *Data
		Threshold float64
	}{opts, d, LowCoverageThreshold}

	if err := pageTmpl.Execute(bw, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return bw.Flush()
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"pct": FormatPct,
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Opts.Title}}{{if .Opts.Sample}} ({{.Opts.Sample}}){{end}}</title>
<style>
body { font-family: Calibri, Arial, sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; margin-bottom: 0; }
h2 { font-size: 1.1em; color: #4f81bd; }
.metrics { display: flex; gap: 2em; margin: 1em 0; }
.metric { border: 1px solid #ccc; border-radius: 4px; padding: 0.5em 1em; }
.metric .value { font-size: 1.4em; font-weight: bold; }
table { border-collapse: collapse; min-width: 30em; }
th, td { border: 1px solid #999; padding: 0.25em 0.75em; text-align: center; }
th { cursor: pointer; background: #f0f0f0; user-select: none; }
td.gene { font-style: italic; }
tr.low td { color: #d00; }
#search { margin-bottom: 0.75em; padding: 0.3em; width: 20em; }
.missing { margin-top: 1em; color: #a60; }
</style>
</head>
<body>
<h1>{{.Opts.Title}}</h1>
<h2>{{.Opts.Subtitle}}</h2>
{{if .Opts.Sample}}<p>Sample: <strong>{{.Opts.Sample}}</strong></p>{{end}}
<div class="metrics">
  <div class="metric"><div>Total genes</div><div class="value">{{.Data.Total}}</div></div>
  <div class="metric"><div>Low coverage (&lt; {{.Threshold}}%)</div><div class="value">{{.Data.LowCount}}</div></div>
  <div class="metric"><div>Average coverage</div><div class="value">{{pct .Data.MeanCoverage}}%</div></div>
</div>
<input id="search" type="search" placeholder="Search genes..." oninput="filterRows(this.value)">
<table id="genes">
<thead><tr><th data-type="num">Rank</th><th data-type="text">Gene</th><th data-type="num">% 1x</th></tr></thead>
<tbody>
{{range .Data.Genes}}<tr{{if .Low}} class="low"{{end}}><td>{{.Rank}}</td><td class="gene">{{.GeneID}}</td><td>{{pct .Pct1x}}</td></tr>
{{end}}</tbody>
</table>
{{if .Opts.Missing}}<p class="missing">Genes without coverage data: {{range $i, $g := .Opts.Missing}}{{if $i}}, {{end}}{{$g}}{{end}}</p>{{end}}
<script>
function filterRows(q) {
  q = q.trim().toUpperCase();
  document.querySelectorAll('#genes tbody tr').forEach(function (tr) {
    tr.style.display = tr.cells[1].textContent.toUpperCase().indexOf(q) >= 0 ? '' : 'none';
  });
}
document.querySelectorAll('#genes th').forEach(function (th, col) {
  var asc = true;
  th.addEventListener('click', function () {
    var body = document.querySelector('#genes tbody');
    var rows = Array.prototype.slice.call(body.rows);
    var num = th.dataset.type === 'num';
    rows.sort(function (a, b) {
      var x = a.cells[col].textContent, y = b.cells[col].textContent;
      var c = num ? parseFloat(x) - parseFloat(y) : x.localeCompare(y);
      return asc ? c : -c;
    });
    asc = !asc;
    rows.forEach(function (r) { body.appendChild(r); });
  });
});
</script>
</body>
</html>
`
