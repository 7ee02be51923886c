package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"provider-dashboard/core"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"actions": func() []core.ActionForm {
		return []core.ActionForm{core.NoForm, core.CreateMsaForm, core.CreateProviderForm, core.AddControlKeyForm, core.StakeForm}
	},
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Networks []core.NetworkInfo
	State    core.State
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := pageData{Networks: s.backend.Networks(), State: s.backend.State()}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.log.Error("render dashboard page", "err", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
