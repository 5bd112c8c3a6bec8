// Пакет service — data-plane операции SDS: пайплайн загрузки, bulk,
// выдача ссылок, удаление и сборка статус-репорта. HTTP-слой передаёт
// сюда уже разобранные входные данные; ошибки возвращаются как
// PipelineError и сериализуются обработчиками в {"detail": ...}.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/sds/internal/audit"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/storage/objectstore"
)

// Prometheus-метрики data-plane операций.
var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sds_operations_total",
		Help: "Общее количество data-plane операций.",
	},
	[]string{"operation", "result"},
)

// PipelineError — ошибка стадии пайплайна: HTTP-код и деталь.
// Detail — строка либо структура (агрегированные исходы валидаторов).
type PipelineError struct {
	StatusCode int
	Detail     any
}

// Error реализует error.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%d: %v", e.StatusCode, e.Detail)
}

// pipelineErr — конструктор PipelineError.
func pipelineErr(code int, detail any) *PipelineError {
	return &PipelineError{StatusCode: code, Detail: detail}
}

// ConfigProvider — доступ к конфигурациям клиентов.
type ConfigProvider interface {
	Get(subject string) *model.ClientConfig
}

// AVScanner — антивирусное сканирование содержимого.
type AVScanner interface {
	Scan(ctx context.Context, content []byte) model.Outcome
}

// Authorizer — авторизационные решения.
type Authorizer interface {
	Enforce(subject, object, action string) bool
}

// Reporter — источник проверок для статус-репорта.
type Reporter func(ctx context.Context) model.ServiceObservations

// Service — data-plane сервис SDS.
type Service struct {
	store      objectstore.Store
	av         AVScanner
	audit      audit.Sink
	authz      Authorizer
	presignTTL time.Duration
	reporters  []Reporter
	logger     *slog.Logger
}

// New создаёт data-plane сервис.
func New(store objectstore.Store, av AVScanner, sink audit.Sink, authz Authorizer, presignTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		av:         av,
		audit:      sink,
		authz:      authz,
		presignTTL: presignTTL,
		logger:     logger.With(slog.String("component", "service")),
	}
}

// VirusCheck проверяет содержимое антивирусом без сохранения.
func (s *Service) VirusCheck(ctx context.Context, content []byte) model.Outcome {
	outcome := s.av.Scan(ctx, content)
	result := "success"
	if !outcome.Passed() {
		result = "error"
	}
	operationsTotal.WithLabelValues("virus_check", result).Inc()
	return outcome
}

// AddReporter регистрирует источник проверок для статус-репорта.
func (s *Service) AddReporter(r Reporter) {
	s.reporters = append(s.reporters, r)
}

// writeAudit записывает строку аудита; ошибка sink'а логируется
// и возвращается вызывающему.
func (s *Service) writeAudit(ctx context.Context, rec model.AuditRecord) error {
	if err := s.audit.Write(ctx, rec); err != nil {
		s.logger.Error("Ошибка записи аудита",
			slog.String("request_id", rec.RequestID),
			slog.String("operation", string(rec.OperationType)),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// auditFailure — best-effort запись FAILED-строки аудита при провале
// пайплайна: error_details = "<url>: <detail>".
func (s *Service) auditFailure(ctx context.Context, requestID string, position int, serviceID, fileID, requestURL string, detail any) {
	errDetails := fmt.Sprintf("%s: %v", requestURL, detail)
	rec := model.NewAuditRecord(requestID, position, serviceID, fileID, model.OpFailed, errDetails)
	_ = s.writeAudit(ctx, rec)
}
