// Пакет checkers — именованные предикаты над строками для сканера
// подозрительного контента. Каждый чекер возвращает (200, "") при
// прохождении или (400, сообщение + значение) при срабатывании.
// Порядок определения фиксирован: sql, html, javascript, excel.
package checkers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bigkaa/sds/internal/domain/model"
)

// Имена чекеров.
const (
	SQLInjectionCheck  = "sql_injection_check"
	HTMLTagCheck       = "html_tag_check"
	JavascriptURLCheck = "javascript_url_check"
	ExcelCharCheck     = "excel_char_check"
)

// Checker — именованный предикат над одной строкой (ячейкой).
type Checker struct {
	// Name — ключ чекера
	Name string
	// Check возвращает исход проверки значения
	Check func(value string) model.Outcome
}

var (
	// Ключевые слова SQL как отдельные слова, либо литералы OR 1=1 / OR '1'='1'.
	sqlInjectionRe = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|UNION)\b|OR 1=1|OR '1'='1'`)

	// HTML-тег: <...> с хотя бы одним символом, отличным от '>'.
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	// javascript, опциональные пробелы, двоеточие.
	javascriptURLRe = regexp.MustCompile(`(?i)javascript\s*:`)
)

// Ordered — все чекеры в порядке определения. Когда на одну строку
// назначено несколько чекеров, они выполняются именно в этом порядке.
var Ordered = []Checker{
	{Name: SQLInjectionCheck, Check: checkSQLInjection},
	{Name: HTMLTagCheck, Check: checkHTMLTag},
	{Name: JavascriptURLCheck, Check: checkJavascriptURL},
	{Name: ExcelCharCheck, Check: checkExcelChar},
}

// ByName возвращает чекер по имени.
func ByName(name string) (Checker, bool) {
	for _, c := range Ordered {
		if c.Name == name {
			return c, true
		}
	}
	return Checker{}, false
}

// Names возвращает имена всех чекеров в порядке определения.
func Names() []string {
	names := make([]string, 0, len(Ordered))
	for _, c := range Ordered {
		names = append(names, c.Name)
	}
	return names
}

func checkSQLInjection(value string) model.Outcome {
	if sqlInjectionRe.MatchString(value) {
		return fail("Suspected SQL injection", value)
	}
	return model.OK()
}

func checkHTMLTag(value string) model.Outcome {
	if htmlTagRe.MatchString(value) {
		return fail("Suspected HTML tag", value)
	}
	return model.OK()
}

func checkJavascriptURL(value string) model.Outcome {
	if javascriptURLRe.MatchString(value) {
		return fail("Suspected javascript url", value)
	}
	return model.OK()
}

func checkExcelChar(value string) model.Outcome {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && strings.ContainsRune("=@+-", rune(trimmed[0])) {
		return fail("Suspected excel character", value)
	}
	return model.OK()
}

// fail формирует исход 400 с сообщением и сработавшим значением.
func fail(message, value string) model.Outcome {
	return model.Outcome{
		StatusCode: 400,
		Detail:     fmt.Sprintf("%s: %s", message, value),
	}
}
