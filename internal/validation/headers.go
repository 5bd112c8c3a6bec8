// headers.go — валидаторы предусловий HTTP-заголовков.
// В отличие от файловых валидаторов работают с http.Header и
// не входят в реестр /available_validators.
package validation

import (
	"net/http"

	"github.com/bigkaa/sds/internal/domain/model"
)

// HaveContentLengthInHeaders: 411 если заголовок content-length отсутствует.
func HaveContentLengthInHeaders(header http.Header) model.Outcome {
	if header.Get("Content-Length") == "" {
		return model.Outcome{
			StatusCode: 411,
			Detail:     "content-length header not found",
		}
	}
	return model.OK()
}
