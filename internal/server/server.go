// Пакет server — HTTP-сервер SDS: chi-роутер и graceful shutdown.
// Публичные маршруты (ping, health, status, metrics) — без аутентификации;
// data-plane маршруты проходят через аутентификатор.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/sds/internal/api/handlers"
	"github.com/bigkaa/sds/internal/api/middleware"
	"github.com/bigkaa/sds/internal/config"
)

// Server — HTTP-сервер SDS.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handler, auth *middleware.Authenticator) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные маршруты
	router.Get("/ping", h.Ping)
	router.Get("/health", h.Health)
	router.Get("/status", h.Status)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Get("/available_validators", h.AvailableValidators)
		r.Post("/save_file", h.SaveFile)
		r.Put("/save_or_update_file", h.SaveOrUpdateFile)
		r.Put("/bulk_upload", h.BulkUpload)
		r.Get("/get_file", h.GetFile)
		// Deprecated-алиас /get_file, сохранён для старых клиентов
		r.Get("/retrieve_file", h.GetFile)
		r.Delete("/delete_files", h.DeleteFiles)
		r.Put("/virus_check_file", h.VirusCheckFile)
		r.Put("/scan_for_suspicious_content", h.ScanForSuspiciousContent)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с настроенным таймаутом.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
