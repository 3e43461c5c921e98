package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type pageData struct {
	Title       string
	IndexSymbol string
}

// Handler serves the dashboard pages and their assets.
type Handler struct {
	renderer    *Renderer
	indexSymbol string
}

func NewHandler(r *Renderer, indexSymbol string) *Handler {
	return &Handler{renderer: r, indexSymbol: indexSymbol}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Renderer = h.renderer
	e.GET("/", h.Index)
	e.GET("/how-it-works", h.HowItWorks)

	static, _ := fs.Sub(staticFS, "static")
	e.StaticFS("/static", static)
}

func (h *Handler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{Title: "StockCast", IndexSymbol: h.indexSymbol})
}

func (h *Handler) HowItWorks(c echo.Context) error {
	return c.Render(http.StatusOK, "how_it_works.html", pageData{Title: "How it works"})
}
