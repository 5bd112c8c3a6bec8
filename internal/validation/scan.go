// scan.go — валидатор ScanForSuspiciousContent: построчное применение
// текстовых чекеров к содержимому файла. CSV-режим разбирает файл
// с настраиваемым разделителем (encoding/csv, LazyQuotes, переменное
// число полей), XML-режим трактует каждую строку как одну ячейку.
package validation

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/sds/internal/checkers"
	"github.com/bigkaa/sds/internal/domain/model"
)

func init() {
	register(Entry{
		Name:        "ScanForSuspiciousContent",
		Description: "Scans file content for suspicious values using the configured text checks",
		DefaultKwargs: map[string]any{
			"delimiter":  ",",
			"xml_mode":   false,
			"scan_types": nil,
		},
		Validate: validateScanForSuspiciousContent,
	})
}

// validateScanForSuspiciousContent — см. описание пакета.
// scan_types по умолчанию — все чекеры; в xml_mode по умолчанию
// исключается html_tag_check. Явно заданные неизвестные scan_types — 400.
func validateScanForSuspiciousContent(file *model.UploadedFile, kwargs map[string]any) (model.Outcome, error) {
	delimiter, found, err := stringKwarg(kwargs, "delimiter")
	if err != nil {
		return model.Outcome{}, err
	}
	if !found {
		delimiter = ","
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return model.Outcome{}, fmt.Errorf("ScanForSuspiciousContent: delimiter должен быть одним символом, получено %q", delimiter)
	}

	xmlMode, _, err := boolKwarg(kwargs, "xml_mode")
	if err != nil {
		return model.Outcome{}, err
	}

	scanTypes, scanTypesSet, err := stringListKwarg(kwargs, "scan_types")
	if err != nil {
		return model.Outcome{}, err
	}

	selected, badOutcome := selectCheckers(scanTypes, scanTypesSet, xmlMode)
	if badOutcome != nil {
		return *badOutcome, nil
	}

	if !utf8.Valid(file.Content) {
		return unableToProcess(file.Filename), nil
	}

	rows, parseErr := splitRows(file.Content, delimiter, xmlMode)
	if parseErr != nil {
		return unableToProcess(file.Filename), nil
	}

	for i, row := range rows {
		for _, cell := range row {
			for _, c := range selected {
				if outcome := c.Check(cell); !outcome.Passed() {
					return model.Outcome{
						StatusCode: 400,
						Detail:     fmt.Sprintf("Problem in %s row %d - %s", file.Filename, i, outcome.Detail),
					}, nil
				}
			}
		}
	}
	return model.OK(), nil
}

// selectCheckers выбирает чекеры по scan_types с сохранением порядка
// определения. Неизвестные имена — исход 400 с их перечнем.
func selectCheckers(scanTypes []string, explicit bool, xmlMode bool) ([]checkers.Checker, *model.Outcome) {
	if !explicit || scanTypes == nil {
		var selected []checkers.Checker
		for _, c := range checkers.Ordered {
			// XML-файлы состоят из тегов: html_tag_check по умолчанию исключён
			if xmlMode && c.Name == checkers.HTMLTagCheck {
				continue
			}
			selected = append(selected, c)
		}
		return selected, nil
	}

	requested := make(map[string]bool, len(scanTypes))
	var unknown []string
	for _, name := range scanTypes {
		if _, ok := checkers.ByName(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		requested[name] = true
	}
	if len(unknown) > 0 {
		return nil, &model.Outcome{
			StatusCode: 400,
			Detail:     fmt.Sprintf("Unknown scan types: %s", strings.Join(unknown, ", ")),
		}
	}

	var selected []checkers.Checker
	for _, c := range checkers.Ordered {
		if requested[c.Name] {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// splitRows разбивает содержимое файла на строки-ячейки.
// CSV-режим: encoding/csv с переменным числом полей и LazyQuotes
// (реальные CSV часто неидеальны). XML-режим: строка файла — одна ячейка.
func splitRows(content []byte, delimiter string, xmlMode bool) ([][]string, error) {
	if xmlMode {
		lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
		rows := make([][]string, 0, len(lines))
		for _, line := range lines {
			rows = append(rows, []string{line})
		}
		return rows, nil
	}

	reader := csv.NewReader(bytes.NewReader(content))
	comma, _ := utf8.DecodeRuneInString(delimiter)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// unableToProcess — исход 400 для нечитаемого или невалидного файла.
func unableToProcess(filename string) model.Outcome {
	return model.Outcome{
		StatusCode: 400,
		Detail:     fmt.Sprintf("Unable to process %s. Is it a valid file?", filename),
	}
}
