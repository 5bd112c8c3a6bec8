// filesize.go — валидаторы размера файла MaxFileSize и MinFileSize.
package validation

import (
	"fmt"

	"github.com/bigkaa/sds/internal/domain/model"
)

func init() {
	register(Entry{
		Name:          "MaxFileSize",
		Description:   "Rejects files larger than the given size in bytes",
		DefaultKwargs: map[string]any{"size": 0},
		Validate:      validateMaxFileSize,
	})
	register(Entry{
		Name:          "MinFileSize",
		Description:   "Rejects files smaller than the given size in bytes",
		DefaultKwargs: map[string]any{"size": 0},
		Validate:      validateMinFileSize,
	})
}

// validateMaxFileSize: 413 если file.size > size, 400 если размер
// файла неизвестен, ошибка конфигурации при size < 0.
func validateMaxFileSize(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	size, found, err := intKwarg(kwargs, "size")
	if err != nil {
		return model.Outcome{}, err
	}
	if !found {
		return model.Outcome{}, fmt.Errorf("MaxFileSize: параметр size обязателен")
	}
	if size < 0 {
		return model.Outcome{}, fmt.Errorf("MaxFileSize: size не может быть отрицательным: %d", size)
	}

	if file.Size < 0 {
		return model.Outcome{StatusCode: 400, Detail: "File size is not available"}, nil
	}
	if file.Size > int64(size) {
		return model.Outcome{
			StatusCode: 413,
			Detail:     fmt.Sprintf("File size %d exceeds maximum allowed size %d", file.Size, size),
		}, nil
	}
	return model.OK(), nil
}

// validateMinFileSize: 400 если file.size < size или размер неизвестен.
func validateMinFileSize(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	size, found, err := intKwarg(kwargs, "size")
	if err != nil {
		return model.Outcome{}, err
	}
	if !found {
		return model.Outcome{}, fmt.Errorf("MinFileSize: параметр size обязателен")
	}
	if size < 0 {
		return model.Outcome{}, fmt.Errorf("MinFileSize: size не может быть отрицательным: %d", size)
	}

	if file.Size < 0 {
		return model.Outcome{StatusCode: 400, Detail: "File size is not available"}, nil
	}
	if file.Size < int64(size) {
		return model.Outcome{
			StatusCode: 400,
			Detail:     fmt.Sprintf("File size %d is below minimum required size %d", file.Size, size),
		}, nil
	}
	return model.OK(), nil
}
