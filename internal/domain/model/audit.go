// audit.go — модель строки аудита. Append-only запись одной логической
// операции data-plane. Уникальность пары (request_id, filename_position).
package model

import (
	"time"
)

// OperationType — тип логической операции в строке аудита.
type OperationType string

const (
	// OpCreate — первое сохранение объекта
	OpCreate OperationType = "CREATE"
	// OpUpdate — перезапись существующего объекта
	OpUpdate OperationType = "UPDATE"
	// OpDelete — удаление объекта (всех версий)
	OpDelete OperationType = "DELETE"
	// OpRead — выдача ссылки на скачивание
	OpRead OperationType = "READ"
	// OpFailed — операция завершилась ошибкой
	OpFailed OperationType = "FAILED"
)

// AuditRecord — одна строка аудита.
// Partition key — RequestID, sort key — FilenamePosition.
type AuditRecord struct {
	// RequestID — корреляционный идентификатор запроса (x-request-id)
	RequestID string `json:"request_id"`

	// FilenamePosition — позиция файла внутри запроса
	FilenamePosition int `json:"filename_position"`

	// ServiceID — azure_display_name из ClientConfig
	ServiceID string `json:"service_id"`

	// FileID — ключ в объектном хранилище ("" если ключ не определён)
	FileID string `json:"file_id"`

	// CreatedOn — момент записи, ISO-8601
	CreatedOn string `json:"created_on"`

	// OperationType — тип операции
	OperationType OperationType `json:"operation_type"`

	// ErrorDetails — детали ошибки, пустая строка при успехе
	ErrorDetails string `json:"error_details"`
}

// NewAuditRecord создаёт строку аудита с текущим временем (UTC, ISO-8601).
func NewAuditRecord(requestID string, position int, serviceID, fileID string, op OperationType, errDetails string) AuditRecord {
	return AuditRecord{
		RequestID:        requestID,
		FilenamePosition: position,
		ServiceID:        serviceID,
		FileID:           fileID,
		CreatedOn:        time.Now().UTC().Format(time.RFC3339),
		OperationType:    op,
		ErrorDetails:     errDetails,
	}
}
