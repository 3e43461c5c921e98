package pages

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e := echo.New()
	NewHandler(r, "^GSPC").RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPages(t *testing.T) {
	e := newTestEcho(t)

	cases := map[string]string{
		"/":                 `id="analyzeBtn"`,
		"/how-it-works":     "random forest",
		"/static/script.js": "/predict",
		"/static/style.css": ".metrics",
	}
	for path, want := range cases {
		rec := get(e, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status=%d", path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: body missing %q", path, want)
		}
	}
}

func TestIndexRendersIndexSymbol(t *testing.T) {
	e := newTestEcho(t)
	body := get(e, "/").Body.String()
	if !strings.Contains(body, "^GSPC") {
		t.Fatalf("index symbol not rendered")
	}
}

func TestStaticMissing(t *testing.T) {
	e := newTestEcho(t)
	if rec := get(e, "/static/nope.js"); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}
