// extensions.go — валидаторы расширения файла.
// Расширение — последний сегмент после точки, без точки, в нижнем
// регистре; "" если расширения нет.
package validation

import (
	"fmt"
	"strings"

	"github.com/bigkaa/sds/internal/domain/model"
)

func init() {
	register(Entry{
		Name:          "AllowedFileExtensions",
		Description:   "Rejects files whose extension is not in the allowed list",
		DefaultKwargs: map[string]any{"extensions": []string{}},
		Validate:      validateAllowedExtensions,
	})
	register(Entry{
		Name:          "DisallowedFileExtensions",
		Description:   "Rejects files whose extension is in the disallowed list",
		DefaultKwargs: map[string]any{"extensions": []string{}},
		Validate:      validateDisallowedExtensions,
	})
}

// fileExtension возвращает расширение имени файла в нижнем регистре
// без точки; "" если расширения нет.
func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// validateAllowedExtensions: 415 если расширение не входит в список,
// ошибка конфигурации при пустом списке.
func validateAllowedExtensions(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	extensions, found, err := stringListKwarg(kwargs, "extensions")
	if err != nil {
		return model.Outcome{}, err
	}
	if !found || len(extensions) == 0 {
		return model.Outcome{}, fmt.Errorf("AllowedFileExtensions: список extensions пуст")
	}

	ext := fileExtension(file.Filename)
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return model.OK(), nil
		}
	}
	return model.Outcome{
		StatusCode: 415,
		Detail:     fmt.Sprintf("File extension %q is not allowed", ext),
	}, nil
}

// validateDisallowedExtensions: 415 если расширение входит в список.
func validateDisallowedExtensions(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	extensions, _, err := stringListKwarg(kwargs, "extensions")
	if err != nil {
		return model.Outcome{}, err
	}

	ext := fileExtension(file.Filename)
	for _, disallowed := range extensions {
		if ext == strings.ToLower(disallowed) {
			return model.Outcome{
				StatusCode: 415,
				Detail:     fmt.Sprintf("File extension %q is not allowed", ext),
			}, nil
		}
	}
	return model.OK(), nil
}
