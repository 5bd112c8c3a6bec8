// upload.go — основной пайплайн сохранения файла.
// Стадии выполняются в строгом порядке; провал любой стадии
// останавливает пайплайн (кроме валидаторов с continue_on_fail)
// и фиксируется FAILED-строкой аудита.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/validation"
)

// UploadRequest — входные данные пайплайна загрузки.
type UploadRequest struct {
	// RequestID — корреляционный идентификатор (x-request-id)
	RequestID string
	// RequestURL — URL запроса, попадает в error_details аудита
	RequestURL string
	// Position — позиция файла внутри запроса (0 для одиночной загрузки)
	Position int
	// Method — http.MethodPost либо http.MethodPut
	Method string
	// File — загруженный файл (nil, если поле отсутствует)
	File *model.UploadedFile
	// Header — заголовки запроса для header-валидаторов
	Header http.Header
	// BucketName — bucketName из тела запроса (информационный)
	BucketName string
	// Folder — опциональная папка ключа
	Folder string
	// Config — конфигурация клиента (не nil)
	Config *model.ClientConfig
}

// UploadResult — результат успешной загрузки.
type UploadResult struct {
	// StatusCode — 201 для нового объекта, 200 для перезаписи
	StatusCode int
	// Success — человекочитаемое сообщение
	Success string
	// Checksum — SHA-256 содержимого (hex)
	Checksum string
	// FileExisted — ключ существовал до записи
	FileExisted bool
}

// Upload выполняет пайплайн сохранения одного файла.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, *PipelineError) {
	serviceID := req.Config.AzureDisplayName

	// 1. Файл обязателен
	if req.File == nil || req.File.Filename == "" {
		pe := pipelineErr(400, "File is required")
		s.auditFailure(ctx, req.RequestID, req.Position, serviceID, "", req.RequestURL, pe.Detail)
		operationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, pe
	}
	file := req.File

	// 2-3. Header-валидатор, обязательные валидаторы имени, антивирус
	if outcome := validation.HaveContentLengthInHeaders(req.Header); !outcome.Passed() {
		return nil, s.uploadFailed(ctx, req, serviceID, "", pipelineErr(outcome.StatusCode, outcome.Detail))
	}

	outcome, err := validation.RunMandatory(file)
	if err != nil {
		return nil, s.uploadFailed(ctx, req, serviceID, "", pipelineErr(500, err.Error()))
	}
	if !outcome.Passed() {
		return nil, s.uploadFailed(ctx, req, serviceID, "", pipelineErr(outcome.StatusCode, outcome.Detail))
	}

	if outcome := s.av.Scan(ctx, file.Content); !outcome.Passed() {
		return nil, s.uploadFailed(ctx, req, serviceID, "", pipelineErr(outcome.StatusCode, outcome.Detail))
	}

	// 4. Клиентская цепочка валидаторов
	if pe := runClientValidators(file, req.Config.FileValidators); pe != nil {
		return nil, s.uploadFailed(ctx, req, serviceID, "", pe)
	}

	// 5. SHA-256 содержимого
	sum := sha256.Sum256(file.Content)
	checksum := hex.EncodeToString(sum[:])

	// 6. bucketName тела — информационный, bucket конфигурации всегда выигрывает
	bucket := req.Config.BucketName
	if req.BucketName != "" && req.BucketName != bucket {
		s.logger.Warn("bucketName тела не совпадает с конфигурацией клиента",
			slog.String("request_id", req.RequestID),
			slog.String("body_bucket", req.BucketName),
			slog.String("config_bucket", bucket),
		)
	}

	// 7. Ключ объекта
	key := file.Filename
	if req.Folder != "" {
		key = req.Folder + "/" + file.Filename
	}

	// 8. Существование ключа; POST не перезаписывает
	exists, err := s.store.Exists(ctx, bucket, key)
	if err != nil {
		return nil, s.uploadFailed(ctx, req, serviceID, key, pipelineErr(500, "Error occurred while processing"))
	}
	if exists && req.Method == http.MethodPost {
		detail := fmt.Sprintf("File %s already exists and cannot be overwritten via the /save_file endpoint. Use PUT endpoint /save_or_update_file to overwrite.", key)
		return nil, s.uploadFailed(ctx, req, serviceID, key, pipelineErr(409, detail))
	}

	// 9. Запись объекта
	if err := s.store.Put(ctx, bucket, key, file.Content, file.ContentType, checksum); err != nil {
		return nil, s.uploadFailed(ctx, req, serviceID, key, pipelineErr(500, "Error occurred while processing"))
	}

	// 10. Аудит CREATE/UPDATE
	op := model.OpCreate
	if exists {
		op = model.OpUpdate
	}
	rec := model.NewAuditRecord(req.RequestID, req.Position, serviceID, key, op, "")
	if err := s.writeAudit(ctx, rec); err != nil {
		operationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, pipelineErr(500, "Error occurred while processing")
	}

	// 11. Ответ
	verb := "saved"
	code := 201
	if exists {
		verb = "updated"
		code = 200
	}
	operationsTotal.WithLabelValues("upload", "success").Inc()
	return &UploadResult{
		StatusCode:  code,
		Success:     fmt.Sprintf("File %s successfully in %s with key %s", verb, bucket, key),
		Checksum:    checksum,
		FileExisted: exists,
	}, nil
}

// uploadFailed фиксирует провал пайплайна: FAILED-строка аудита,
// метрика и возврат PipelineError.
func (s *Service) uploadFailed(ctx context.Context, req UploadRequest, serviceID, fileID string, pe *PipelineError) *PipelineError {
	s.auditFailure(ctx, req.RequestID, req.Position, serviceID, fileID, req.RequestURL, pe.Detail)
	operationsTotal.WithLabelValues("upload", "error").Inc()
	return pe
}

// runClientValidators прогоняет клиентскую цепочку валидаторов.
// По умолчанию первый провал останавливает цепочку; continue_on_fail
// накапливает провалы, итог синтезируется: один провал — его код;
// все коды совпадают — этот код; есть 5xx — 500; иначе 422.
// Деталь агрегата — упорядоченный список исходов.
func runClientValidators(file *model.UploadedFile, specs []model.FileValidatorSpec) *PipelineError {
	var failures []model.Outcome

	for _, spec := range specs {
		outcome, err := validation.Run(spec, file)
		if err != nil {
			return pipelineErr(500, err.Error())
		}
		if outcome.Passed() {
			continue
		}
		failures = append(failures, outcome)
		if !spec.ContinueOnFail {
			break
		}
	}

	switch len(failures) {
	case 0:
		return nil
	case 1:
		return pipelineErr(failures[0].StatusCode, failures[0].Detail)
	}

	code := failures[0].StatusCode
	same := true
	has5xx := false
	for _, f := range failures {
		if f.StatusCode != code {
			same = false
		}
		if f.StatusCode >= 500 {
			has5xx = true
		}
	}
	switch {
	case same:
		// code уже выбран
	case has5xx:
		code = 500
	default:
		code = 422
	}
	return pipelineErr(code, failures)
}
