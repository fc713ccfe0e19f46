package abtest

import (
	"io"
	"text/template"
)

// workloadTemplate renders the dbbench workload config for a single query
// under test. Setup queries run once; the warmup repeats the query file
// inside the setup section so it is not measured; job "q" performs the
// measured iterations. The query lives in its own file to sidestep INI
// escaping issues.
var workloadTemplate = template.Must(template.New("workload").
	Funcs(template.FuncMap{"times": func(n int) []struct{} { return make([]struct{}, n) }}).
	Parse(`[setup]
{{- range .Setup}}
query={{.}}
{{- end}}
{{- range times .Warmup}}
query-file={{$.QueryFile}}
{{- end}}

[job "q"]
query-file={{.QueryFile}}
count={{.Iterations}}
`))

type workloadParams struct {
	QueryFile  string
	Setup      []string
	Warmup     int
	Iterations int
}

func writeWorkload(w io.Writer, p workloadParams) error {
	return workloadTemplate.Execute(w, p)
}
