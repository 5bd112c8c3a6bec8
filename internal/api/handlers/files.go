// files.go — HTTP handlers файловых операций SDS:
// save_file, save_or_update_file, bulk_upload, get_file, delete_files.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/bigkaa/sds/internal/api/errors"
	"github.com/bigkaa/sds/internal/api/middleware"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/service"
)

// uploadResponse — тело успешного ответа save_file/save_or_update_file.
type uploadResponse struct {
	Success     string `json:"success"`
	Checksum    string `json:"checksum"`
	FileExisted bool   `json:"file_existed"`
}

// SaveFile обрабатывает POST /save_file.
// Multipart form: file, body=JSON{bucketName, folder?}.
// Существующий ключ не перезаписывается (409).
func (h *Handler) SaveFile(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, http.MethodPost)
}

// SaveOrUpdateFile обрабатывает PUT /save_or_update_file.
// Как SaveFile, но существующий ключ перезаписывается (200).
func (h *Handler) SaveOrUpdateFile(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, http.MethodPut)
}

// handleUpload — общий обработчик одиночной загрузки.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, method string) {
	cfg, _, ok := h.clientConfig(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		errors.BadRequest(w, fmt.Sprintf("Malformed multipart form: %s", err.Error()))
		return
	}

	body, ok := parseBody(w, r)
	if !ok {
		return
	}

	file, err := formFile(r, "file")
	if err != nil {
		errors.InternalError(w, "Error occurred while processing")
		return
	}

	result, pe := h.svc.Upload(r.Context(), service.UploadRequest{
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		RequestURL: r.URL.String(),
		Method:     method,
		File:       file,
		Header:     r.Header,
		BucketName: body.BucketName,
		Folder:     body.Folder,
		Config:     cfg,
	})
	if pe != nil {
		writePipelineError(w, pe)
		return
	}

	writeJSON(w, result.StatusCode, uploadResponse{
		Success:     result.Success,
		Checksum:    result.Checksum,
		FileExisted: result.FileExisted,
	})
}

// BulkUpload обрабатывает PUT /bulk_upload.
// Multipart form: files (повторяющееся поле), body=JSON{bucketName, folder?}.
// Ответ всегда 200: map filename → агрегат исходов.
func (h *Handler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := h.clientConfig(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		errors.BadRequest(w, fmt.Sprintf("Malformed multipart form: %s", err.Error()))
		return
	}

	body, ok := parseBody(w, r)
	if !ok {
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		errors.UnprocessableEntity(w, map[string]string{"files": "Field required"})
		return
	}

	files := make([]*model.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readUploadedFile(fh)
		if err != nil {
			errors.InternalError(w, "Error occurred while processing")
			return
		}
		files = append(files, file)
	}

	results := h.svc.BulkUpload(r.Context(), service.BulkRequest{
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		RequestURL: r.URL.String(),
		Files:      files,
		Header:     r.Header,
		BucketName: body.BucketName,
		Folder:     body.Folder,
		Config:     cfg,
	})

	writeJSON(w, http.StatusOK, results)
}

// GetFile обрабатывает GET /get_file?file_key=<key>
// (и deprecated GET /retrieve_file). Отдаёт presigned URL скачивания.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := h.clientConfig(w, r)
	if !ok {
		return
	}

	fileKey := r.URL.Query().Get("file_key")
	if fileKey == "" {
		errors.BadRequest(w, "File key is missing")
		return
	}

	url, pe := h.svc.Retrieve(r.Context(),
		middleware.RequestIDFromContext(r.Context()), r.URL.String(), fileKey, cfg)
	if pe != nil {
		writePipelineError(w, pe)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"fileURL": url})
}

// DeleteFiles обрабатывает DELETE /delete_files?file_keys=...&file_keys=...
// Ответ 200: map ключ → per-key статус {204, 404, 500}.
func (h *Handler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	cfg, subject, ok := h.clientConfig(w, r)
	if !ok {
		return
	}

	keys := r.URL.Query()["file_keys"]

	statuses, pe := h.svc.Delete(r.Context(),
		middleware.RequestIDFromContext(r.Context()), r.URL.String(), subject, keys, cfg)
	if pe != nil {
		writePipelineError(w, pe)
		return
	}

	writeJSON(w, http.StatusOK, statuses)
}
