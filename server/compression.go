package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/klauspost/compress/gzip"

	"github.com/m0smith/genia-12-2024/config"
)

// scriptContentTypes are the bodies the server writes: a handler result as
// text and an evaluation error as JSON. Anything else passes through as is.
var scriptContentTypes = []string{"text/plain", "application/json"}

// compressionLevel maps a serve.compression.level name to a gzip level.
func compressionLevel(name string) int {
	switch name {
	case "fastest":
		return gzip.BestSpeed
	case "best":
		return gzip.BestCompression
	}
	return gzip.DefaultCompression
}

// newCompressionHandler gzips script results and error reports of at least
// cfg.MinSize bytes for clients that accept it.
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) http.Handler {
	if !cfg.Enabled || cfg.Level == "none" {
		return h
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(compressionLevel(cfg.Level)),
		gzhttp.ContentTypes(scriptContentTypes),
	)
	if err != nil {
		return h
	}
	return wrapper(h)
}
