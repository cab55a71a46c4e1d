// Package logging builds the service's zap logger.
package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config holds logging configuration.
type Config struct {
	Level       string            `json:"level"`
	Format      string            `json:"format"` // "json" or "console"
	OutputPath  string            `json:"output_path"`
	Fields      map[string]string `json:"fields"`
	Development bool              `json:"development"`
}

// New creates a structured logger.
func New(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if config.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	fields := make([]zap.Field, 0, len(config.Fields))
	for k, v := range config.Fields {
		fields = append(fields, zap.String(k, v))
	}
	return logger.With(fields...), nil
}

// DataQuality logs a record that was dropped or repaired while loading.
func DataQuality(logger *zap.Logger, entity, issue string, fields ...zap.Field) {
	logger.Warn("Data quality issue",
		append([]zap.Field{
			zap.String("entity", entity),
			zap.String("issue", issue),
			zap.String("type", "data_quality"),
		}, fields...)...)
}

// Middleware logs one line per request, in the place of chi's
// middleware.Logger.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
