// handler.go — общий каркас HTTP-обработчиков SDS: разбор multipart,
// резолв конфигурации клиента и сериализация ответов.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/bigkaa/sds/internal/api/errors"
	"github.com/bigkaa/sds/internal/api/middleware"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/service"
)

// maxMultipartMemory — буфер разбора multipart form.
const maxMultipartMemory = 32 << 20 // 32 MB

// ConfigProvider — доступ к конфигурациям клиентов.
type ConfigProvider interface {
	Get(subject string) *model.ClientConfig
}

// Handler — обработчик всех маршрутов SDS.
type Handler struct {
	svc     *service.Service
	configs ConfigProvider
	logger  *slog.Logger
}

// New создаёт обработчик маршрутов SDS.
func New(svc *service.Service, configs ConfigProvider, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		configs: configs,
		logger:  logger.With(slog.String("component", "handlers")),
	}
}

// writeJSON сериализует тело ответа.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writePipelineError сериализует PipelineError в формат {"detail": ...}.
func writePipelineError(w http.ResponseWriter, pe *service.PipelineError) {
	errors.WriteDetail(w, pe.StatusCode, pe.Detail)
}

// clientConfig резолвит конфигурацию клиента по subject'у из контекста.
// Отсутствующая конфигурация — 403 (false уже означает записанный ответ).
func (h *Handler) clientConfig(w http.ResponseWriter, r *http.Request) (*model.ClientConfig, string, bool) {
	subject := middleware.SubjectFromContext(r.Context())
	cfg := h.configs.Get(subject)
	if cfg == nil {
		h.logger.Warn("Конфигурация клиента не найдена",
			slog.String("subject", subject),
		)
		errors.Forbidden(w, "Forbidden")
		return nil, subject, false
	}
	return cfg, subject, true
}

// uploadBody — JSON-тело multipart-поля body.
type uploadBody struct {
	BucketName string `json:"bucketName"`
	Folder     string `json:"folder"`
}

// parseBody разбирает поле body и проверяет обязательный bucketName.
// false означает уже записанный ответ об ошибке.
func parseBody(w http.ResponseWriter, r *http.Request) (uploadBody, bool) {
	var body uploadBody

	raw := r.FormValue("body")
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			errors.BadRequest(w, "Malformed body field")
			return uploadBody{}, false
		}
	}

	if body.BucketName == "" {
		errors.BadRequest(w, map[string]string{"bucketName": "Field required"})
		return uploadBody{}, false
	}
	return body, true
}

// readUploadedFile буферизует multipart-файл в модель пайплайна.
func readUploadedFile(header *multipart.FileHeader) (*model.UploadedFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &model.UploadedFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     content,
	}, nil
}

// formFile извлекает один файл из поля field; nil без ошибки,
// если поле отсутствует (решение о 400 принимает пайплайн).
func formFile(r *http.Request, field string) (*model.UploadedFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	return readUploadedFile(r.MultipartForm.File[field][0])
}
