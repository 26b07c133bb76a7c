// Package web serves the plan form and renders generated plans.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"ai-fitness-planner/internal/formtoken"
	"ai-fitness-planner/internal/planner"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server wires the HTTP routes to the plan service.
type Server struct {
	echo     *echo.Echo
	planner  *planner.Service
	tokens   *formtoken.Issuer
	markdown goldmark.Markdown
	dataPath string
}

// NewServer creates the web server. dataPath is the metrics database file
// reported by /health; it may be empty.
func NewServer(svc *planner.Service, tokens *formtoken.Issuer, dataPath string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = &templateRenderer{
		templates: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{
		echo:     e,
		planner:  svc,
		tokens:   tokens,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		dataPath: dataPath,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleForm)
	s.echo.POST("/plan", s.handleSubmit)
	s.echo.POST("/api/plan", s.handleAPIPlan)
	s.echo.GET("/health", s.handleHealth)
}

// Handler returns the HTTP handler for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// renderMarkdown converts the plan to HTML. The source text is passed to
// the converter as is; raw HTML inside it is not emitted.
func (s *Server) renderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
