package dashboard

import (
	"html/template"
	"net/http"

	"github.com/MrEthical07/goSession/middleware"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Path}}</title></head>
<body data-path="{{.Path}}" data-state="{{.State}}"><div id="root"></div></body></html>
`))

// page serves the client-rendered shell for a guarded route.
func (s *server) page(w http.ResponseWriter, r *http.Request) {
	state, _ := middleware.StateFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = pageTmpl.Execute(w, map[string]string{
		"Path":  r.URL.Path,
		"State": state.String(),
	})
}
