package dashboard

import "html/template"

// pages is parsed at init to fail fast on template errors.
var pages = template.Must(template.New("pages").Parse(pageTemplates))

const plotlyURL = "https://cdn.plot.ly/plotly-2.27.0.min.js"

const pageTemplates = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="` + plotlyURL + `"></script>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 1100px; }
nav a { margin-right: 1em; }
.chart { width: 100%; height: 420px; margin-bottom: 2em; }
.error { color: #b00020; font-weight: bold; }
.muted { color: #666; }
table { border-collapse: collapse; }
td, th { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: left; }
</style>
</head>
<body>
<nav><a href="/">Dashboard</a><a href="/explorer">Explorer</a><a href="/topic-map">Topic map</a></nav>
<h1>{{.Title}}</h1>
{{if .Dataset}}<p class="muted">Dataset {{.Dataset}}{{if .RunID}}, run {{.RunID}}{{end}}. Topic IDs are specific to this run.</p>{{end}}
{{end}}

{{define "footer"}}</body>
</html>{{end}}

{{define "error"}}{{template "header" .}}
<p class="error">{{.Error}}</p>
{{template "footer" .}}{{end}}

{{define "dashboard"}}{{template "header" .}}
<div id="trending"></div>
<div id="top-topics" class="chart"></div>
<div id="totals" class="chart"></div>
<div id="status" class="chart"></div>
<script>
const data = {{.Data}};
const trending = document.getElementById("trending");
(data.trending || []).forEach((chart, i) => {
  const div = document.createElement("div");
  div.className = "chart";
  trending.appendChild(div);
  const traces = chart.series.map(s => ({x: s.years, y: s.counts, name: s.label, type: "scatter", mode: "lines+markers"}));
  Plotly.newPlot(div, traces, {title: chart.title, xaxis: {title: "Filing year", dtick: 1}, yaxis: {title: "Patents"}});
});
const top = data.top_topics || [];
Plotly.newPlot("top-topics", [{x: top.map(t => t.count), y: top.map(t => t.topic_words), type: "bar", orientation: "h"}],
  {title: "Top 10 topics", yaxis: {autorange: "reversed"}, margin: {l: 260}});
const totals = data.totals || [];
Plotly.newPlot("totals", [{x: totals.map(t => t.year), y: totals.map(t => t.count), type: "bar"}],
  {title: "Total patents by filing year", xaxis: {dtick: 1}});
const status = data.status || [];
Plotly.newPlot("status", [{labels: status.map(s => s.status), values: status.map(s => s.count), type: "pie"}],
  {title: "Patents by topic status"});
</script>
{{template "footer" .}}{{end}}

{{define "explorer"}}{{template "header" .}}
<form method="get" action="/explorer">
<label>Patent number <input name="patent" value="{{.Query}}" placeholder="9713127"></label>
<label>Similar patents <input name="k" type="number" min="1" max="100" value="{{.K}}"></label>
<button type="submit">Explore</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{with .Result}}
<h2><a href="{{.Link}}">{{.Patent.Title}}</a></h2>
<p>Patent {{.Patent.PatentNumber}}, application {{.Patent.ID}}</p>
<h3>Topic</h3>
{{if .TopicWords}}<p>{{range $i, $w := .TopicWords}}{{if $i}}, {{end}}{{$w}}{{end}}</p>{{else}}<p>{{$.NoTopicText}}</p>{{end}}
<h3>Similar patents</h3>
<table>
<tr><th>Patent</th><th>Title</th><th>Score</th></tr>
{{range .Similar}}<tr><td>{{if .Link}}<a href="{{.Link}}">{{.PatentNumber}}</a>{{else}}{{.ID}}{{end}}</td><td>{{.Title}}</td><td>{{printf "%.4f" .Score}}</td></tr>
{{end}}</table>
{{end}}
{{template "footer" .}}{{end}}

{{define "topicmap"}}{{template "header" .}}
<div id="map" style="width:100%;height:700px"></div>
<script>
const points = ({{.Data}}).points || [];
const byTopic = {};
points.forEach(p => {
  (byTopic[p.topic_id] = byTopic[p.topic_id] || {x: [], y: [], text: []});
  byTopic[p.topic_id].x.push(p.x);
  byTopic[p.topic_id].y.push(p.y);
  byTopic[p.topic_id].text.push(p.id);
});
const traces = Object.keys(byTopic).map(id => ({
  x: byTopic[id].x, y: byTopic[id].y, text: byTopic[id].text,
  name: "Topic " + id, mode: "markers", type: "scattergl", marker: {size: 5}
}));
Plotly.newPlot("map", traces, {title: "Patents by topic (t-SNE)"});
</script>
{{template "footer" .}}{{end}}
`
