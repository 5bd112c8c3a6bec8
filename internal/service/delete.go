// delete.go — удаление всех версий объектов по списку ключей.
// Удаление — единственная операция, требующая явного casbin-allow
// (subject, bucket, "DELETE").
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/sds/internal/domain/model"
)

// Delete удаляет все версии каждого ключа. Результат — map ключ →
// статус {204, 404, 500}; HTTP-статус ответа всегда 200.
// Каждый ключ фиксируется DELETE-строкой аудита со своим исходом.
func (s *Service) Delete(ctx context.Context, requestID, requestURL, subject string, keys []string, cfg *model.ClientConfig) (map[string]int, *PipelineError) {
	if len(keys) == 0 {
		return nil, pipelineErr(400, "File key is missing")
	}

	bucket := cfg.BucketName
	if !s.authz.Enforce(subject, bucket, "DELETE") {
		s.logger.Warn("Удаление запрещено политикой",
			slog.String("subject", subject),
			slog.String("bucket", bucket),
		)
		return nil, pipelineErr(403, "Forbidden")
	}

	serviceID := cfg.AzureDisplayName
	statuses := make(map[string]int, len(keys))

	for i, key := range keys {
		status, errDetails := s.deleteKey(ctx, bucket, key, requestURL)
		statuses[key] = status

		rec := model.NewAuditRecord(requestID, i, serviceID, key, model.OpDelete, errDetails)
		_ = s.writeAudit(ctx, rec)

		result := "success"
		if status >= 400 {
			result = "error"
		}
		operationsTotal.WithLabelValues("delete", result).Inc()
	}

	return statuses, nil
}

// deleteKey удаляет все версии одного ключа; возвращает per-key статус
// и error_details для строки аудита ("" при успехе).
func (s *Service) deleteKey(ctx context.Context, bucket, key, requestURL string) (int, string) {
	deleted, err := s.store.DeleteAllVersions(ctx, bucket, key)
	if err != nil {
		return 500, fmt.Sprintf("%s: %v", requestURL, err)
	}
	if deleted == 0 {
		detail := fmt.Sprintf("No versions found for %s", key)
		return 404, fmt.Sprintf("%s: %s", requestURL, detail)
	}
	return 204, ""
}
