// bulk.go — координатор bulk-загрузки. Файлы обрабатываются
// последовательно в порядке входной последовательности, исходы
// группируются по имени файла. Провал одного файла не влияет на
// остальные; HTTP-статус ответа всегда 200.
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/sds/internal/domain/model"
)

// BulkRequest — входные данные bulk-загрузки.
type BulkRequest struct {
	RequestID  string
	RequestURL string
	Files      []*model.UploadedFile
	Header     http.Header
	BucketName string
	Folder     string
	Config     *model.ClientConfig
}

// BulkUpload прогоняет пайплайн загрузки для каждого файла
// последовательно и агрегирует исходы по имени файла.
// Позиция файла во входной последовательности — ключ сортировки аудита.
func (s *Service) BulkUpload(ctx context.Context, req BulkRequest) map[string]*model.BulkUploadFileResponse {
	results := make(map[string]*model.BulkUploadFileResponse)

	for i, file := range req.Files {
		name := ""
		if file != nil {
			name = file.Filename
		}

		entry, ok := results[name]
		if !ok {
			entry = &model.BulkUploadFileResponse{Filename: name}
			results[name] = entry
		}
		entry.Positions = append(entry.Positions, i)

		result, pe := s.Upload(ctx, UploadRequest{
			RequestID:  req.RequestID,
			RequestURL: req.RequestURL,
			Position:   i,
			Method:     http.MethodPut,
			File:       file,
			Header:     req.Header,
			BucketName: req.BucketName,
			Folder:     req.Folder,
			Config:     req.Config,
		})
		if pe != nil {
			entry.Outcomes = append(entry.Outcomes, model.Outcome{
				StatusCode: pe.StatusCode,
				Detail:     detailString(pe.Detail),
			})
			continue
		}

		outcome := model.Outcome{StatusCode: 201, Detail: "saved"}
		if result.FileExisted {
			outcome = model.Outcome{StatusCode: 200, Detail: "updated"}
		}
		entry.Outcomes = append(entry.Outcomes, outcome)

		// Последнее успешное сохранение определяет итоговую checksum
		checksum := result.Checksum
		entry.Checksum = &checksum
	}

	return results
}

// detailString приводит деталь PipelineError к строке для bulk-исхода.
func detailString(detail any) string {
	if s, ok := detail.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", detail)
}
