// mimetypes.go — валидаторы MIME-типа файла.
package validation

import (
	"fmt"
	"strings"

	"github.com/bigkaa/sds/internal/domain/model"
)

func init() {
	register(Entry{
		Name:          "AllowedMimetypes",
		Description:   "Rejects files whose content type is not in the allowed list",
		DefaultKwargs: map[string]any{"content_types": []string{}},
		Validate:      validateAllowedMimetypes,
	})
	register(Entry{
		Name:          "DisallowedMimetypes",
		Description:   "Rejects files whose content type is in the disallowed list",
		DefaultKwargs: map[string]any{"content_types": []string{}},
		Validate:      validateDisallowedMimetypes,
	})
}

// validateAllowedMimetypes: 415 если content_type не входит в список,
// 400 если MIME-тип отсутствует, ошибка конфигурации при пустом списке.
func validateAllowedMimetypes(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	contentTypes, found, err := stringListKwarg(kwargs, "content_types")
	if err != nil {
		return model.Outcome{}, err
	}
	if !found || len(contentTypes) == 0 {
		return model.Outcome{}, fmt.Errorf("AllowedMimetypes: список content_types пуст")
	}

	if file.ContentType == "" {
		return model.Outcome{StatusCode: 400, Detail: "File content type is not available"}, nil
	}

	ct := strings.ToLower(file.ContentType)
	for _, allowed := range contentTypes {
		if ct == strings.ToLower(allowed) {
			return model.OK(), nil
		}
	}
	return model.Outcome{
		StatusCode: 415,
		Detail:     fmt.Sprintf("Content type %q is not allowed", ct),
	}, nil
}

// validateDisallowedMimetypes: 415 если content_type входит в список,
// 400 если MIME-тип отсутствует.
func validateDisallowedMimetypes(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	contentTypes, _, err := stringListKwarg(kwargs, "content_types")
	if err != nil {
		return model.Outcome{}, err
	}

	if file.ContentType == "" {
		return model.Outcome{StatusCode: 400, Detail: "File content type is not available"}, nil
	}

	ct := strings.ToLower(file.ContentType)
	for _, disallowed := range contentTypes {
		if ct == strings.ToLower(disallowed) {
			return model.Outcome{
				StatusCode: 415,
				Detail:     fmt.Sprintf("Content type %q is not allowed", ct),
			}, nil
		}
	}
	return model.OK(), nil
}
