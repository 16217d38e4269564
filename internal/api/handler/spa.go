package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// SPAHandler serves the built front end from dir. Paths that are not files
// get index.html so client-side routing can take over.
type SPAHandler struct {
	dir string
}

func NewSPAHandler(dir string) *SPAHandler {
	return &SPAHandler{dir: dir}
}

func (h *SPAHandler) Serve(c echo.Context) error {
	clean := path.Clean("/" + c.Request().URL.Path)
	file := filepath.Join(h.dir, filepath.FromSlash(clean))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		return c.File(file)
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "page not found")
	}
	return c.File(index)
}
