package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tileview/internal/config"
	"tileview/internal/decode"
	"tileview/internal/inventory"
	"tileview/internal/tile"
	"tileview/internal/tiles"
)

const (
	tileCacheControl = "public, max-age=86400"
	retryAfter       = "1"
)

type Handlers struct {
	config  *config.Config
	logger  *zap.Logger
	tiles   *tiles.Service[*decode.Tile]
	scanner *inventory.Scanner
}

func New(config *config.Config, logger *zap.Logger, tiles *tiles.Service[*decode.Tile], scanner *inventory.Scanner) *Handlers {
	return &Handlers{
		config:  config,
		logger:  logger,
		tiles:   tiles,
		scanner: scanner,
	}
}

// NewAPI creates the huma API on mux with every route registered.
func (h *Handlers) NewAPI(mux *http.ServeMux) huma.API {
	humaConfig := huma.DefaultConfig("tileview API", "1.0.0")
	humaConfig.Info.Description = "Slippy map tiles fetched on demand and cached on disk."
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	api := humago.New(mux, humaConfig)
	h.Register(api)
	return api
}

// Handler wraps mux with CORS and request logging.
func (h *Handlers) Handler(mux *http.ServeMux) http.Handler {
	return h.CORSMiddleware(h.RequestLoggingMiddleware(mux))
}

func (h *Handlers) Register(api huma.API) {
	huma.Get(api, "/healthz", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/providers", h.GetProviders, huma.OperationTags("providers"))
	huma.Get(api, "/api/tiles/{provider}/{z}/{x}/{y}", h.GetTile, huma.OperationTags("tiles"))
	huma.Get(api, "/api/tiles/{provider}/{z}/{x}/{y}/info", h.GetTileInfo, huma.OperationTags("tiles"))
	huma.Get(api, "/api/tiles/{provider}/{z}/{x}/{y}/geojson", h.GetTileGeoJSON, huma.OperationTags("tiles"))
	huma.Get(api, "/api/viewport", h.GetViewport, huma.OperationTags("viewport"))
	huma.Get(api, "/api/viewport/geojson", h.GetViewportGeoJSON, huma.OperationTags("viewport"))
	huma.Get(api, "/api/project", h.GetProject, huma.OperationTags("viewport"))
	huma.Get(api, "/api/cache/stats", h.GetCacheStats, huma.OperationTags("cache"))
}

func (h *Handlers) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		ip := h.extractIP(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("ip", ip),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Int64("bytes", wrapped.bytesWritten),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

func (h *Handlers) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigin := ""

		switch {
		case h.config.AllowedOrigin != "":
			allowedOrigin = h.config.AllowedOrigin
		case origin == "":
			allowedOrigin = "*"
		case strings.HasPrefix(origin, "http://"+r.Host), strings.HasPrefix(origin, "https://"+r.Host):
			allowedOrigin = origin
		}

		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type HealthBody struct {
	Status string `json:"status" doc:"Health status" example:"ok"`
}

func (h *Handlers) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok"}}, nil
}

type ProvidersOutput struct {
	Body []tile.Provider
}

func (h *Handlers) GetProviders(ctx context.Context, input *struct{}) (*ProvidersOutput, error) {
	return &ProvidersOutput{Body: tile.Providers}, nil
}

// Not for real production use due to potential spoofing
func (h *Handlers) extractIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip != "" {
		return strings.Split(ip, ":")[0]
	}

	addr := r.RemoteAddr
	if addr != "" {
		return strings.Split(addr, ":")[0]
	}

	return "unknown"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
