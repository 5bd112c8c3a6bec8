// upload.go — модели пайплайна загрузки: буферизованный файл,
// исход валидации (status_code, detail) и агрегат bulk-ответа.
package model

// UploadedFile — загруженный файл, буферизованный в память для
// многократного прохода по пайплайну (валидаторы, AV, SHA-256).
type UploadedFile struct {
	// Filename — имя файла из multipart-части
	Filename string

	// ContentType — MIME-тип из заголовка multipart-части
	ContentType string

	// Size — размер в байтах. -1 означает, что размер неизвестен
	// (атрибут отсутствует) — валидаторы размера возвращают 400.
	Size int64

	// Content — содержимое файла
	Content []byte
}

// Outcome — исход одной стадии валидации: HTTP-код и описание.
type Outcome struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
}

// OK — успешный исход стадии.
func OK() Outcome {
	return Outcome{StatusCode: 200}
}

// Passed сообщает, что стадия пройдена.
func (o Outcome) Passed() bool {
	return o.StatusCode == 200
}

// BulkUploadFileResponse — агрегат по одному логическому имени файла
// внутри bulk-запроса. Positions — индексы входной последовательности,
// Outcomes — исходы в порядке обработки, Checksum — SHA-256 (hex)
// последнего успешного сохранения (nil, если успехов не было).
type BulkUploadFileResponse struct {
	Filename  string    `json:"filename"`
	Positions []int     `json:"positions"`
	Outcomes  []Outcome `json:"outcomes"`
	Checksum  *string   `json:"checksum"`
}
