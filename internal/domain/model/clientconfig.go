// Пакет model — доменные модели Secure Document Storage.
// ClientConfig — конфигурация клиента (service principal), задаёт
// bucket и цепочку файловых валидаторов. Загружается из JSON-файла
// <azure_client_id>.json или из переменных окружения LOCAL_CONFIG_*.
package model

import (
	"encoding/json"
)

// ClientConfig — конфигурация одного клиента SDS.
// Ровно один ClientConfig на subject (azure_client_id).
type ClientConfig struct {
	// AzureClientID — идентификатор subject'а (claim azp из JWT)
	AzureClientID string `json:"azure_client_id"`

	// AzureDisplayName — логический идентификатор сервиса,
	// записывается в строки аудита как service_id
	AzureDisplayName string `json:"azure_display_name"`

	// BucketName — namespace объектного хранилища клиента
	BucketName string `json:"bucket_name"`

	// FileValidators — упорядоченная цепочка валидаторов клиента
	FileValidators []FileValidatorSpec `json:"file_validators"`
}

// FileValidatorSpec — ссылка на валидатор из реестра с параметрами.
type FileValidatorSpec struct {
	// Name — ключ валидатора в реестре
	Name string `json:"name"`

	// Description — человекочитаемое описание (опционально)
	Description string `json:"description,omitempty"`

	// ValidatorKwargs — параметры валидатора (имя → значение)
	ValidatorKwargs map[string]any `json:"validator_kwargs,omitempty"`

	// ContinueOnFail — при true провал валидатора не прерывает цепочку,
	// итоги агрегируются в единый статус. По умолчанию false (short-circuit).
	ContinueOnFail bool `json:"continue_on_fail,omitempty"`
}

// clientConfigAliases — вспомогательная структура для разбора JSON
// с поддержкой импортных алиасов полей:
// username↔azure_client_id, requesting_service_id↔azure_display_name,
// storage_id↔bucket_name, validators↔file_validators.
type clientConfigAliases struct {
	AzureClientID       string              `json:"azure_client_id"`
	Username            string              `json:"username"`
	AzureDisplayName    string              `json:"azure_display_name"`
	RequestingServiceID string              `json:"requesting_service_id"`
	BucketName          string              `json:"bucket_name"`
	StorageID           string              `json:"storage_id"`
	FileValidators      []FileValidatorSpec `json:"file_validators"`
	Validators          []FileValidatorSpec `json:"validators"`
}

// UnmarshalJSON разбирает ClientConfig, принимая канонические имена полей
// и импортные алиасы. Каноническое имя имеет приоритет над алиасом.
func (c *ClientConfig) UnmarshalJSON(data []byte) error {
	var aux clientConfigAliases
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.AzureClientID = firstNonEmpty(aux.AzureClientID, aux.Username)
	c.AzureDisplayName = firstNonEmpty(aux.AzureDisplayName, aux.RequestingServiceID)
	c.BucketName = firstNonEmpty(aux.BucketName, aux.StorageID)
	c.FileValidators = aux.FileValidators
	if c.FileValidators == nil {
		c.FileValidators = aux.Validators
	}
	return nil
}

// validatorSpecAliases — алиасы полей спецификации валидатора:
// type↔name, kwargs↔validator_kwargs.
type validatorSpecAliases struct {
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Description    string         `json:"description"`
	Kwargs         map[string]any `json:"kwargs"`
	ValidatorKwarg map[string]any `json:"validator_kwargs"`
	ContinueOnFail bool           `json:"continue_on_fail"`
}

// UnmarshalJSON разбирает FileValidatorSpec с поддержкой алиасов.
func (s *FileValidatorSpec) UnmarshalJSON(data []byte) error {
	var aux validatorSpecAliases
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.Name = firstNonEmpty(aux.Name, aux.Type)
	s.Description = aux.Description
	s.ValidatorKwargs = aux.ValidatorKwarg
	if s.ValidatorKwargs == nil {
		s.ValidatorKwargs = aux.Kwargs
	}
	s.ContinueOnFail = aux.ContinueOnFail
	return nil
}

// firstNonEmpty возвращает первое непустое значение.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
