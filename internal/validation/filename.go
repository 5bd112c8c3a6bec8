// filename.go — обязательные валидаторы имени файла.
// Применяются ко всем загрузкам до клиентской цепочки валидаторов.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bigkaa/sds/internal/domain/model"
)

// MandatoryOrder — имена обязательных валидаторов в порядке применения.
var MandatoryOrder = []string{
	"NoDirectoryPathInFilename",
	"NoWindowsVolumeInFilename",
	"NoUrlInFilename",
	"NoUnacceptableCharactersInFilename",
}

// windowsVolumeRe — буква диска с двоеточием и слэшем: C:\ или C:/.
var windowsVolumeRe = regexp.MustCompile(`[A-Za-z]:[\\/]`)

// unacceptableChars — запрещённые символы имени файла.
const unacceptableChars = "\\/{}[]<>:\"|^%`#&$@=;+?,*~"

func init() {
	register(Entry{
		Name:        "NoDirectoryPathInFilename",
		Description: "Rejects filenames containing a directory path",
		Validate: func(file *model.UploadedFile, _ map[string]any) (model.Outcome, error) {
			if strings.Contains(file.Filename, `\`) {
				return filenameRejected("must not contain a directory path", file.Filename), nil
			}
			return model.OK(), nil
		},
	})

	register(Entry{
		Name:        "NoWindowsVolumeInFilename",
		Description: "Rejects filenames containing a Windows volume prefix",
		Validate: func(file *model.UploadedFile, _ map[string]any) (model.Outcome, error) {
			if windowsVolumeRe.MatchString(file.Filename) {
				return filenameRejected("must not contain a Windows volume", file.Filename), nil
			}
			return model.OK(), nil
		},
	})

	register(Entry{
		Name:        "NoUrlInFilename",
		Description: "Rejects filenames containing a URL",
		Validate: func(file *model.UploadedFile, _ map[string]any) (model.Outcome, error) {
			lowered := strings.ToLower(file.Filename)
			for _, marker := range []string{"http://", "https://", "www."} {
				if strings.Contains(lowered, marker) {
					return filenameRejected("must not contain a URL", file.Filename), nil
				}
			}
			return model.OK(), nil
		},
	})

	register(Entry{
		Name:        "NoUnacceptableCharactersInFilename",
		Description: "Rejects filenames containing control, extended ASCII or reserved characters",
		Validate: func(file *model.UploadedFile, _ map[string]any) (model.Outcome, error) {
			for _, r := range file.Filename {
				if r < 32 || r == 127 || (r >= 128 && r <= 255) || strings.ContainsRune(unacceptableChars, r) {
					return filenameRejected("contains unacceptable characters", file.Filename), nil
				}
			}
			return model.OK(), nil
		},
	})
}

// RunMandatory прогоняет обязательные валидаторы имени файла в
// фиксированном порядке, останавливаясь на первом провале.
func RunMandatory(file *model.UploadedFile) (model.Outcome, error) {
	for _, name := range MandatoryOrder {
		entry, ok := registry[name]
		if !ok {
			return model.Outcome{}, fmt.Errorf("обязательный валидатор %q не зарегистрирован", name)
		}
		outcome, err := entry.Validate(file, nil)
		if err != nil {
			return model.Outcome{}, err
		}
		if !outcome.Passed() {
			return outcome, nil
		}
	}
	return model.OK(), nil
}

// filenameRejected формирует исход 400 для невалидного имени файла.
func filenameRejected(reason, filename string) model.Outcome {
	return model.Outcome{
		StatusCode: 400,
		Detail:     fmt.Sprintf("Filename %s: %s", reason, filename),
	}
}
