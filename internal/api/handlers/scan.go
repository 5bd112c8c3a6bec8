// scan.go — HTTP handlers проверочных endpoints:
// virus_check_file и scan_for_suspicious_content. Файл проверяется,
// но не сохраняется; аудит не ведётся.
package handlers

import (
	"net/http"

	"github.com/bigkaa/sds/internal/api/errors"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/validation"
)

// VirusCheckFile обрабатывает PUT /virus_check_file.
// Multipart form: file. Вердикт антивируса возвращается как
// {"detail": <вердикт>} с кодом исхода.
func (h *Handler) VirusCheckFile(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.clientConfig(w, r); !ok {
		return
	}

	if outcome := validation.HaveContentLengthInHeaders(r.Header); !outcome.Passed() {
		errors.WriteDetail(w, outcome.StatusCode, outcome.Detail)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		errors.BadRequest(w, "Malformed multipart form")
		return
	}

	file, err := formFile(r, "file")
	if err != nil {
		errors.InternalError(w, "Error occurred while processing")
		return
	}
	if file == nil || file.Filename == "" {
		errors.BadRequest(w, "File is required")
		return
	}

	outcome := h.svc.VirusCheck(r.Context(), file.Content)
	errors.WriteDetail(w, outcome.StatusCode, outcome.Detail)
}

// ScanForSuspiciousContent обрабатывает PUT /scan_for_suspicious_content.
// Multipart form: file, delimiter (опционально), scan_types (повторяющееся
// поле, опционально). Построчная проверка текстовыми чекерами.
func (h *Handler) ScanForSuspiciousContent(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.clientConfig(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		errors.BadRequest(w, "Malformed multipart form")
		return
	}

	file, err := formFile(r, "file")
	if err != nil {
		errors.InternalError(w, "Error occurred while processing")
		return
	}
	if file == nil || file.Filename == "" {
		errors.BadRequest(w, "File is required")
		return
	}

	kwargs := map[string]any{}
	if delimiter := r.FormValue("delimiter"); delimiter != "" {
		kwargs["delimiter"] = delimiter
	}
	if scanTypes := r.MultipartForm.Value["scan_types"]; len(scanTypes) > 0 {
		values := make([]any, 0, len(scanTypes))
		for _, st := range scanTypes {
			values = append(values, st)
		}
		kwargs["scan_types"] = values
	}

	outcome, err := validation.Run(model.FileValidatorSpec{
		Name:            "ScanForSuspiciousContent",
		ValidatorKwargs: kwargs,
	}, file)
	if err != nil {
		errors.InternalError(w, err.Error())
		return
	}

	if outcome.Passed() {
		errors.WriteDetail(w, http.StatusOK, "No suspicious content found")
		return
	}
	errors.WriteDetail(w, outcome.StatusCode, outcome.Detail)
}
