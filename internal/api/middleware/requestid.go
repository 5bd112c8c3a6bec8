// requestid.go — middleware корреляционного идентификатора запроса.
// Заголовок x-request-id — partition key строк аудита; при отсутствии
// генерируется UUID, значение дублируется в ответ.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID — имя заголовка корреляционного идентификатора.
const HeaderRequestID = "x-request-id"

// ContextKeyRequestID — ключ контекста для request id.
const ContextKeyRequestID contextKey = "request_id"

// RequestID возвращает middleware, обеспечивающий наличие x-request-id:
// входящее значение сохраняется, отсутствующее — генерируется.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(HeaderRequestID, requestID)
			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext извлекает request id из контекста запроса.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(ContextKeyRequestID).(string)
	return requestID
}
