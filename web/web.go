// Package web holds the embedded templates and static assets of the
// server-rendered views.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages lists every renderable page. Each is parsed together with layout.html.
var Pages = []string{
	"home_anon.html",
	"home.html",
	"signup.html",
	"login.html",
	"users_index.html",
	"user_show.html",
	"user_follows.html",
	"user_likes.html",
	"user_edit.html",
	"message_new.html",
	"message_show.html",
	"not_found.html",
}

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
}

// Renderer is a gin HTMLRender that keeps one template set per page, so that
// every page can define its own "content" block.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		pages[page] = tpl
	}
	return &Renderer{pages: pages}, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.pages[name], Name: "layout", Data: data}
}

// Static returns the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
