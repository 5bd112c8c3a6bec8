// Пакет errors — конструкторы стандартных ошибок в формате SDS.
// Единый формат: {"detail": <строка или объект>}.
// Все HTTP-ответы с ошибками должны использовать WriteDetail.
package errors //nolint:revive // имя пакета закреплено контрактом API, конфликт со stdlib осознан

import (
	"encoding/json"
	"net/http"
)

// detailBody — структура тела ответа ошибки.
// Detail — строка для простых ошибок, объект для ошибок валидации тела
// (например {"bucketName": "Field required"}).
type detailBody struct {
	Detail any `json:"detail"`
}

// WriteDetail записывает ответ ошибки в стандартном формате SDS.
func WriteDetail(w http.ResponseWriter, statusCode int, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(detailBody{Detail: detail})
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 некорректные входные данные.
func BadRequest(w http.ResponseWriter, detail any) {
	WriteDetail(w, http.StatusBadRequest, detail)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusUnauthorized, detail)
}

// Forbidden — 403 недостаточно прав или отсутствует ClientConfig.
func Forbidden(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusForbidden, detail)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusNotFound, detail)
}

// Conflict — 409 конфликт (POST на существующий ключ).
func Conflict(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusConflict, detail)
}

// LengthRequired — 411 отсутствует заголовок content-length.
func LengthRequired(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusLengthRequired, detail)
}

// PayloadTooLarge — 413 файл превышает лимит.
func PayloadTooLarge(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusRequestEntityTooLarge, detail)
}

// UnsupportedMediaType — 415 недопустимое расширение или MIME-тип.
func UnsupportedMediaType(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusUnsupportedMediaType, detail)
}

// UnprocessableEntity — 422 тело запроса не прошло валидацию формы.
func UnprocessableEntity(w http.ResponseWriter, detail any) {
	WriteDetail(w, http.StatusUnprocessableEntity, detail)
}

// ServiceUnavailable — 503 сервис временно недоступен.
func ServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusServiceUnavailable, detail)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusInternalServerError, detail)
}
