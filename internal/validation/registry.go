// Пакет validation — реестр файловых валидаторов SDS.
// Реестр — явная таблица (имя → описание, параметры по умолчанию,
// функция проверки), заполняется на старте без рефлексии, что делает
// /available_validators детерминированным.
package validation

import (
	"fmt"
	"sort"

	"github.com/bigkaa/sds/internal/domain/model"
)

// ValidateFunc — функция проверки файла с типизированными kwargs.
// Исход (status_code, detail) описывает результат проверки;
// error означает некорректную конфигурацию валидатора и
// транслируется HTTP-слоем в 500.
type ValidateFunc func(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error)

// Entry — запись реестра валидаторов.
type Entry struct {
	// Name — ключ валидатора
	Name string
	// Description — заголовочное описание (первая строка)
	Description string
	// DefaultKwargs — параметры с их значениями по умолчанию.
	// Обязательные параметры представлены нулевыми значениями.
	DefaultKwargs map[string]any
	// Validate — функция проверки
	Validate ValidateFunc
}

// ValidatorInfo — элемент ответа /available_validators.
type ValidatorInfo struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ValidatorKwargs map[string]any `json:"validator_kwargs"`
}

// registry — таблица всех файловых валидаторов, включая обязательные
// валидаторы имени файла. Порядок в таблице не важен: порядок применения
// задаёт ClientConfig (клиентские) и MandatoryOrder (обязательные).
var registry = map[string]Entry{}

// register добавляет запись в реестр. Дубликат имени — ошибка программиста.
func register(e Entry) {
	if _, exists := registry[e.Name]; exists {
		panic(fmt.Sprintf("валидатор %s зарегистрирован дважды", e.Name))
	}
	registry[e.Name] = e
}

// Lookup возвращает запись реестра по имени.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// Run выполняет валидатор, заданный спецификацией из ClientConfig.
// Неизвестное имя — ошибка конфигурации (500 на HTTP-слое).
func Run(spec model.FileValidatorSpec, file *model.UploadedFile) (model.Outcome, error) {
	entry, ok := registry[spec.Name]
	if !ok {
		return model.Outcome{}, fmt.Errorf("неизвестный валидатор %q", spec.Name)
	}
	return entry.Validate(file, spec.ValidatorKwargs)
}

// List возвращает все валидаторы, отсортированные по имени,
// для ответа /available_validators.
func List() []ValidatorInfo {
	infos := make([]ValidatorInfo, 0, len(registry))
	for _, e := range registry {
		kwargs := e.DefaultKwargs
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		infos = append(infos, ValidatorInfo{
			Name:            e.Name,
			Description:     e.Description,
			ValidatorKwargs: kwargs,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
