package server

import (
	"html/template"
	"net/http"
)

type pageData struct {
	RepositoryURL string
	Branch        string
	Error         string
	State         string
	Report        string
}

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>RepoGuardian</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: .75rem; }
input { width: 100%; padding: .4rem; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; white-space: pre-wrap; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>RepoGuardian</h1>
<p>Fetch a GitHub repository, validate its files, suggest fixes and summarize its health.</p>
<form method="post" action="/analyze">
<label>Repository URL <input name="repository_url" placeholder="https://github.com/owner/repo" value="{{.RepositoryURL}}"></label>
<label>Branch (optional) <input name="branch" value="{{.Branch}}"></label>
<label>GitHub token (optional) <input name="token" type="password" autocomplete="off"></label>
<p><button type="submit">Analyze</button></p>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Report}}<h2>Report{{if .State}} ({{.State}}){{end}}</h2>
<pre>{{.Report}}</pre>{{end}}
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, data)
}
