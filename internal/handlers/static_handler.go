package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterStatic serves the browser client from dir at the root path.
// It reports false and registers nothing when dir is not a directory.
func RegisterStatic(r chi.Router, dir string, logger *zap.Logger) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("static directory not found, browser client disabled", zap.String("dir", dir))
		return false
	}

	r.Handle("/*", http.FileServer(http.Dir(dir)))
	return true
}
