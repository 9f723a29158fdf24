package dashboard

import (
	"bytes"
	"html/template"
	"net/http"
)

var funcMap = template.FuncMap{
	"categoryColor": categoryColor,
}

var pageTmpls = map[string]*template.Template{
	"overview": template.Must(template.New("overview").Funcs(funcMap).Parse(navHTML + overviewHTML)),
	"audit":    template.Must(template.New("audit").Funcs(funcMap).Parse(navHTML + auditHTML)),
	"config":   template.Must(template.New("config").Funcs(funcMap).Parse(navHTML + configHTML)),
}

func renderPage(w http.ResponseWriter, name string, data map[string]any) {
	tmpl, ok := pageTmpls[name]
	if !ok {
		http.Error(w, "unknown page: "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

const navHTML = `{{define "nav"}}
<nav class="bg-gray-900 border-b border-gray-700 px-6 py-4">
    <div class="flex items-center justify-between max-w-7xl mx-auto">
        <div class="flex items-center space-x-2">
            <span class="text-xl font-bold text-white">noisegate</span>
            <span class="text-xs bg-gray-700 text-gray-300 px-2 py-1 rounded">Dashboard</span>
        </div>
        <div class="flex space-x-4">
            <a href="/" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "overview"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Overview</a>
            <a href="/audit" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "audit"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Audit Log</a>
            <a href="/config" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "config"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Config</a>
            <a href="/metrics" class="px-3 py-2 rounded hover:bg-gray-800 text-gray-400">Metrics</a>
        </div>
    </div>
</nav>
{{end}}`

const headHTML = `<!DOCTYPE html>
<html lang="en" class="dark">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>noisegate admin</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <script src="https://unpkg.com/htmx.org@2.0.4"></script>
    <script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>
    <style>body { background-color: #0f172a; color: #e2e8f0; }</style>
</head>
<body class="min-h-screen">
{{template "nav" .}}
<main class="max-w-7xl mx-auto px-6 py-8">`

const footHTML = `</main>
</body>
</html>`

const overviewHTML = headHTML + `
<div class="flex justify-between items-center mb-6">
    <h1 class="text-2xl font-bold">Overview</h1>
    <span class="text-sm text-gray-400">mode <span class="font-mono {{if eq (printf "%s" .Mode) "development"}}text-green-300{{else}}text-gray-300{{end}}">{{.Mode}}</span>{{if .Target}} &rarr; <span class="font-mono">{{.Target}}</span>{{end}}</span>
</div>
{{if not .AuditEnabled}}
<div class="bg-gray-900 border border-yellow-700 rounded-lg p-4 mb-6 text-yellow-300 text-sm">
    Audit log is disabled. Counts below stay at zero; see /metrics for live counters.
</div>
{{end}}
<div class="grid grid-cols-1 md:grid-cols-3 gap-6 mb-8">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Suppressed</div>
        <div class="text-3xl font-bold text-white">{{.Stats.TotalSuppressed}}</div>
    </div>
    <div class="bg-gray-900 border border-yellow-900 rounded-lg p-6">
        <div class="text-yellow-400 text-sm mb-1">Favicon Redirects</div>
        <div class="text-3xl font-bold text-yellow-300">{{.Stats.Redirects}}</div>
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-gray-400 text-sm mb-2">By Entrypoint</h2>
        {{range $e, $count := .Stats.ByEntrypoint}}
        <div class="flex justify-between py-1">
            <span class="text-gray-300 font-mono text-sm">{{$e}}</span>
            <span class="text-gray-400">{{$count}}</span>
        </div>
        {{else}}<p class="text-gray-500">No data yet</p>{{end}}
    </div>
</div>
<div class="grid grid-cols-1 md:grid-cols-2 gap-6">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">By Category</h2>
        {{range $cat, $count := .Stats.ByCategory}}
        <div class="flex justify-between py-1 border-b border-gray-800">
            <span class="px-2 py-1 rounded text-xs font-bold {{categoryColor $cat}}">{{$cat}}</span>
            <span class="text-gray-400">{{$count}}</span>
        </div>
        {{else}}<p class="text-gray-500">No data yet</p>{{end}}
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">By Status</h2>
        {{range $status, $count := .Stats.ByStatus}}
        <div class="flex justify-between py-1 border-b border-gray-800">
            <span class="text-gray-300 font-mono text-sm">{{$status}}</span>
            <span class="text-gray-400">{{$count}}</span>
        </div>
        {{else}}<p class="text-gray-500">No data yet</p>{{end}}
    </div>
</div>
` + footHTML

const auditHTML = headHTML + `
<div class="flex justify-between items-center mb-6">
    <h1 class="text-2xl font-bold">Suppressed Requests</h1>
    <span class="text-sm text-gray-400">{{if .AuditEnabled}}Live updates via SSE{{else}}Audit log disabled{{end}}</span>
</div>
<div class="bg-gray-900 border border-gray-700 rounded-lg overflow-hidden">
    <table class="w-full text-sm text-left">
        <thead class="bg-gray-800 text-gray-400 uppercase text-xs">
            <tr>
                <th class="px-4 py-3">Time</th>
                <th class="px-4 py-3">Entrypoint</th>
                <th class="px-4 py-3">Path</th>
                <th class="px-4 py-3">Category</th>
                <th class="px-4 py-3">Status</th>
                <th class="px-4 py-3">Redirect</th>
            </tr>
        </thead>
        <tbody id="audit-table"
               {{if .AuditEnabled}}hx-ext="sse"
               sse-connect="/audit/stream"
               sse-swap="audit"
               hx-swap="afterbegin"{{end}}>
            {{range .Records}}
            <tr class="border-b border-gray-700 hover:bg-gray-800">
                <td class="px-4 py-2 text-gray-400 text-xs">{{.Timestamp.Format "15:04:05"}}</td>
                <td class="px-4 py-2">{{.Entrypoint}}</td>
                <td class="px-4 py-2 font-mono text-xs max-w-xs truncate">{{.Path}}</td>
                <td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold {{categoryColor .Category}}">{{.Category}}</span></td>
                <td class="px-4 py-2">{{.Status}}</td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{if .RedirectTo}}{{.RedirectTo}}{{else}}-{{end}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
</div>
` + footHTML

const configHTML = headHTML + `
<h1 class="text-2xl font-bold mb-6">Active Configuration</h1>
<div class="grid grid-cols-1 md:grid-cols-2 gap-6 mb-6">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">Routing</h2>
        <div class="text-sm text-gray-300">API fallback prefix: <span class="font-mono">{{.Config.APIPrefix}}</span></div>
        {{range .Config.APIPassthrough}}<div class="text-sm text-gray-400">passthrough <span class="font-mono">{{.}}</span></div>{{end}}
        {{range .Config.ExcludePatterns}}<div class="text-sm text-gray-400">exclude <span class="font-mono">{{.}}</span></div>{{end}}
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">Response Policy</h2>
        <div class="text-sm text-gray-300">{{if .Config.ResponsePolicy}}<span class="font-mono">{{.Config.ResponsePolicy}}</span>{{else}}built-in{{end}}</div>
    </div>
</div>
<div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
    <pre class="font-mono text-sm text-gray-300 whitespace-pre-wrap">{{.ConfigYAML}}</pre>
</div>
` + footHTML
