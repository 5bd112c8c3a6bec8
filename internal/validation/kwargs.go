// kwargs.go — извлечение типизированных параметров валидаторов
// из map[string]any (значения приходят из JSON: числа — float64,
// списки — []any).
package validation

import (
	"fmt"
)

// intKwarg извлекает целочисленный параметр.
// Возвращает (значение, найден, ошибка типа).
func intKwarg(kwargs map[string]any, name string) (int, bool, error) {
	raw, ok := kwargs[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != float64(int(v)) {
			return 0, true, fmt.Errorf("параметр %s: ожидалось целое число, получено %v", name, v)
		}
		return int(v), true, nil
	default:
		return 0, true, fmt.Errorf("параметр %s: ожидалось целое число, получено %T", name, raw)
	}
}

// stringKwarg извлекает строковый параметр.
func stringKwarg(kwargs map[string]any, name string) (string, bool, error) {
	raw, ok := kwargs[name]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("параметр %s: ожидалась строка, получено %T", name, raw)
	}
	return s, true, nil
}

// boolKwarg извлекает булев параметр.
func boolKwarg(kwargs map[string]any, name string) (bool, bool, error) {
	raw, ok := kwargs[name]
	if !ok || raw == nil {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, true, fmt.Errorf("параметр %s: ожидалось булево значение, получено %T", name, raw)
	}
	return b, true, nil
}

// stringListKwarg извлекает параметр-список строк.
func stringListKwarg(kwargs map[string]any, name string) ([]string, bool, error) {
	raw, ok := kwargs[name]
	if !ok || raw == nil {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, true, nil
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, true, fmt.Errorf("параметр %s: элемент списка не строка: %T", name, item)
			}
			result = append(result, s)
		}
		return result, true, nil
	default:
		return nil, true, fmt.Errorf("параметр %s: ожидался список строк, получено %T", name, raw)
	}
}
