// retrieve.go — выдача временной ссылки на скачивание объекта.
package service

import (
	"context"
	"fmt"

	"github.com/bigkaa/sds/internal/domain/model"
)

// detailRetrieveError — деталь 500 при выдаче ссылки.
const detailRetrieveError = "An error occurred while retrieving the file"

// Retrieve возвращает presigned URL для скачивания объекта по ключу.
// Отсутствующий ключ — 404; прочие ошибки — 500. Каждая попытка
// фиксируется READ-строкой аудита (error_details при провале).
func (s *Service) Retrieve(ctx context.Context, requestID, requestURL, fileKey string, cfg *model.ClientConfig) (string, *PipelineError) {
	serviceID := cfg.AzureDisplayName
	bucket := cfg.BucketName

	exists, err := s.store.Exists(ctx, bucket, fileKey)
	if err != nil {
		return "", s.retrieveFailed(ctx, requestID, serviceID, fileKey, requestURL, pipelineErr(500, detailRetrieveError))
	}
	if !exists {
		detail := fmt.Sprintf("File %s not found", fileKey)
		return "", s.retrieveFailed(ctx, requestID, serviceID, fileKey, requestURL, pipelineErr(404, detail))
	}

	url, err := s.store.PresignedGet(ctx, bucket, fileKey, s.presignTTL)
	if err != nil {
		return "", s.retrieveFailed(ctx, requestID, serviceID, fileKey, requestURL, pipelineErr(500, detailRetrieveError))
	}

	rec := model.NewAuditRecord(requestID, 0, serviceID, fileKey, model.OpRead, "")
	if err := s.writeAudit(ctx, rec); err != nil {
		operationsTotal.WithLabelValues("retrieve", "error").Inc()
		return "", pipelineErr(500, detailRetrieveError)
	}

	operationsTotal.WithLabelValues("retrieve", "success").Inc()
	return url, nil
}

// retrieveFailed фиксирует провал выдачи ссылки READ-строкой аудита.
func (s *Service) retrieveFailed(ctx context.Context, requestID, serviceID, fileKey, requestURL string, pe *PipelineError) *PipelineError {
	errDetails := fmt.Sprintf("%s: %v", requestURL, pe.Detail)
	rec := model.NewAuditRecord(requestID, 0, serviceID, fileKey, model.OpRead, errDetails)
	_ = s.writeAudit(ctx, rec)
	operationsTotal.WithLabelValues("retrieve", "error").Inc()
	return pe
}
