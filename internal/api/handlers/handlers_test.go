package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/sds/internal/api/middleware"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/service"
)

// --- Фейковые зависимости сервиса ---

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	_, ok := f.objects[bucket+"/"+key]
	return ok, nil
}

func (f *fakeStore) Put(_ context.Context, bucket, key string, content []byte, _, _ string) error {
	f.objects[bucket+"/"+key] = content
	return nil
}

func (f *fakeStore) PresignedGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://store.local/" + bucket + "/" + key + "?signed", nil
}

func (f *fakeStore) DeleteAllVersions(_ context.Context, bucket, key string) (int, error) {
	k := bucket + "/" + key
	if _, ok := f.objects[k]; !ok {
		return 0, nil
	}
	delete(f.objects, k)
	return 1, nil
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakeStore) Observations(_ context.Context) model.ServiceObservations {
	return model.ServiceObservations{ServiceName: "objectstore"}
}

type fakeAV struct{ outcome model.Outcome }

func (f *fakeAV) Scan(_ context.Context, _ []byte) model.Outcome { return f.outcome }

type fakeSink struct{ records []model.AuditRecord }

func (f *fakeSink) Write(_ context.Context, rec model.AuditRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeSink) Observations() model.ServiceObservations {
	return model.ServiceObservations{ServiceName: "audit"}
}

type fakeAuthz struct{ allow bool }

func (f *fakeAuthz) Enforce(_, _, _ string) bool { return f.allow }

// fakeConfigs — ConfigProvider с фиксированным набором конфигураций.
type fakeConfigs struct {
	configs map[string]*model.ClientConfig
}

func (f *fakeConfigs) Get(subject string) *model.ClientConfig { return f.configs[subject] }

// --- Вспомогательные конструкторы ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	handler *Handler
	store   *fakeStore
	sink    *fakeSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	sink := &fakeSink{}
	av := &fakeAV{outcome: model.Outcome{StatusCode: 200, Detail: "file has no virus"}}
	svc := service.New(store, av, sink, &fakeAuthz{allow: true}, time.Minute, testLogger())

	configs := &fakeConfigs{configs: map[string]*model.ClientConfig{
		"client-a": {
			AzureClientID:    "client-a",
			AzureDisplayName: "svc-a",
			BucketName:       "bucket-a",
		},
	}}

	return &testEnv{
		handler: New(svc, configs, testLogger()),
		store:   store,
		sink:    sink,
	}
}

// withSubject помещает subject в контекст запроса (как middleware аутентификации).
func withSubject(r *http.Request, subject string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeySubject, subject)
	return r.WithContext(ctx)
}

// multipartBody собирает multipart form с файлами и полями.
func multipartBody(t *testing.T, files map[string][]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for field, contents := range files {
		for i, content := range contents {
			fw, err := w.CreateFormFile(field, fmt.Sprintf("file-%d.txt", i))
			if err != nil {
				t.Fatal(err)
			}
			_, _ = io.WriteString(fw, content)
		}
	}
	for name, value := range fields {
		_ = w.WriteField(name, value)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, w.FormDataContentType()
}

// uploadRequest собирает multipart-запрос одиночной загрузки.
func uploadRequest(t *testing.T, method, path, filename, content string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(fw, content)
	_ = w.WriteField("body", `{"bucketName":"bucket-a","folder":"docs"}`)
	_ = w.Close()

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Content-Length", fmt.Sprint(buf.Len()))
	return withSubject(req, "client-a")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("ошибка разбора тела %q: %v", rec.Body.String(), err)
	}
}

// helloChecksum — SHA-256 строки "hello".
const helloChecksum = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

// --- Служебные endpoints ---

// TestPing: GET /ping — {"ping":"pong"}.
func TestPing(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["ping"] != "pong" {
		t.Errorf("неожиданное тело: %v", body)
	}
}

// TestHealth: 200 при успехе всех проверок, 503 при провале.
func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("без репортеров ожидался 200, получен %d", rec.Code)
	}

	// Добавляем провальный репортер через новый env
	env2 := newTestEnv(t)
	store := newFakeStore()
	sink := &fakeSink{}
	svc := service.New(store, &fakeAV{outcome: model.OK()}, sink, &fakeAuthz{allow: true}, time.Minute, testLogger())
	svc.AddReporter(service.AntivirusReporter(func() error { return context.DeadlineExceeded }))
	env2.handler = New(svc, &fakeConfigs{}, testLogger())

	rec = httptest.NewRecorder()
	env2.handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ожидался 503, получен %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["detail"] != "Please try again later." {
		t.Errorf("неожиданное тело: %v", body)
	}
}

// TestAvailableValidators: отсортированный список с известными валидаторами.
func TestAvailableValidators(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.AvailableValidators(rec, httptest.NewRequest(http.MethodGet, "/available_validators", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	var list []struct {
		Name string `json:"name"`
	}
	decodeBody(t, rec, &list)

	names := make([]string, 0, len(list))
	for _, v := range list {
		names = append(names, v.Name)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("список не отсортирован: %v", names)
			break
		}
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"MaxFileSize", "ScanForSuspiciousContent", "NoUrlInFilename"} {
		if !strings.Contains(joined, want) {
			t.Errorf("в списке нет %s: %v", want, names)
		}
	}
}

// --- Загрузка ---

// TestSaveFile_Success: POST /save_file — 201, checksum, file_existed=false.
func TestSaveFile_Success(t *testing.T) {
	env := newTestEnv(t)
	req := uploadRequest(t, http.MethodPost, "/save_file", "test.txt", "hello")
	rec := httptest.NewRecorder()

	env.handler.SaveFile(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался 201, получен %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success     string `json:"success"`
		Checksum    string `json:"checksum"`
		FileExisted bool   `json:"file_existed"`
	}
	decodeBody(t, rec, &body)
	if body.Checksum != helloChecksum {
		t.Errorf("неверная checksum: %s", body.Checksum)
	}
	if body.Success != "File saved successfully in bucket-a with key docs/test.txt" {
		t.Errorf("неожиданное сообщение: %s", body.Success)
	}
	if body.FileExisted {
		t.Error("file_existed должен быть false")
	}
}

// TestSaveFile_Conflict: повторный POST того же ключа — 409.
func TestSaveFile_Conflict(t *testing.T) {
	env := newTestEnv(t)
	env.store.objects["bucket-a/docs/test.txt"] = []byte("old")

	rec := httptest.NewRecorder()
	env.handler.SaveFile(rec, uploadRequest(t, http.MethodPost, "/save_file", "test.txt", "hello"))
	if rec.Code != http.StatusConflict {
		t.Errorf("ожидался 409, получен %d", rec.Code)
	}
}

// TestSaveOrUpdateFile_Updates: PUT существующего ключа — 200.
func TestSaveOrUpdateFile_Updates(t *testing.T) {
	env := newTestEnv(t)
	env.store.objects["bucket-a/docs/test.txt"] = []byte("old")

	rec := httptest.NewRecorder()
	env.handler.SaveOrUpdateFile(rec, uploadRequest(t, http.MethodPut, "/save_or_update_file", "test.txt", "hello"))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		FileExisted bool `json:"file_existed"`
	}
	decodeBody(t, rec, &body)
	if !body.FileExisted {
		t.Error("file_existed должен быть true")
	}
}

// TestSaveFile_MissingBucketName: без bucketName — 400 с объектной деталью.
func TestSaveFile_MissingBucketName(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, map[string][]string{"file": {"hello"}}, map[string]string{"body": `{"folder":"docs"}`})
	req := httptest.NewRequest(http.MethodPost, "/save_file", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprint(buf.Len()))
	rec := httptest.NewRecorder()

	env.handler.SaveFile(rec, withSubject(req, "client-a"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидался 400, получен %d", rec.Code)
	}
	var body struct {
		Detail map[string]string `json:"detail"`
	}
	decodeBody(t, rec, &body)
	if body.Detail["bucketName"] != "Field required" {
		t.Errorf("неожиданная деталь: %v", body.Detail)
	}
}

// TestSaveFile_NoClientConfig: subject без конфигурации — 403.
func TestSaveFile_NoClientConfig(t *testing.T) {
	env := newTestEnv(t)
	req := uploadRequest(t, http.MethodPost, "/save_file", "test.txt", "hello")
	req = withSubject(req, "unknown-client")
	rec := httptest.NewRecorder()

	env.handler.SaveFile(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался 403, получен %d", rec.Code)
	}
}

// TestBulkUpload: три копии одного имени — positions, outcomes, checksum.
func TestBulkUpload(t *testing.T) {
	env := newTestEnv(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, content := range []string{"v1", "v2", "hello"} {
		fw, _ := w.CreateFormFile("files", "a.txt")
		_, _ = io.WriteString(fw, content)
	}
	_ = w.WriteField("body", `{"bucketName":"bucket-a"}`)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPut, "/bulk_upload", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Content-Length", fmt.Sprint(buf.Len()))
	rec := httptest.NewRecorder()

	env.handler.BulkUpload(rec, withSubject(req, "client-a"))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d: %s", rec.Code, rec.Body.String())
	}

	var results map[string]model.BulkUploadFileResponse
	decodeBody(t, rec, &results)
	entry, ok := results["a.txt"]
	if !ok {
		t.Fatalf("нет агрегата a.txt: %v", results)
	}
	if len(entry.Positions) != 3 || len(entry.Outcomes) != 3 {
		t.Fatalf("неверный агрегат: %+v", entry)
	}
	if entry.Outcomes[0].StatusCode != 201 || entry.Outcomes[1].StatusCode != 200 {
		t.Errorf("неверные исходы: %+v", entry.Outcomes)
	}
	if entry.Checksum == nil || *entry.Checksum != helloChecksum {
		t.Errorf("checksum последней записи: %v", entry.Checksum)
	}
}

// TestBulkUpload_NoFiles: без файлов — 422.
func TestBulkUpload_NoFiles(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, nil, map[string]string{"body": `{"bucketName":"bucket-a"}`})
	req := httptest.NewRequest(http.MethodPut, "/bulk_upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprint(buf.Len()))
	rec := httptest.NewRecorder()

	env.handler.BulkUpload(rec, withSubject(req, "client-a"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("ожидался 422, получен %d", rec.Code)
	}
}

// --- Получение и удаление ---

// TestGetFile: существующий ключ — fileURL; отсутствующий — 404; без ключа — 400.
func TestGetFile(t *testing.T) {
	env := newTestEnv(t)
	env.store.objects["bucket-a/docs/test.txt"] = []byte("hello")

	req := withSubject(httptest.NewRequest(http.MethodGet, "/get_file?file_key=docs/test.txt", nil), "client-a")
	rec := httptest.NewRecorder()
	env.handler.GetFile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if !strings.Contains(body["fileURL"], "docs/test.txt") {
		t.Errorf("неожиданный fileURL: %v", body)
	}

	req = withSubject(httptest.NewRequest(http.MethodGet, "/get_file?file_key=missing.txt", nil), "client-a")
	rec = httptest.NewRecorder()
	env.handler.GetFile(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("ожидался 404, получен %d", rec.Code)
	}

	req = withSubject(httptest.NewRequest(http.MethodGet, "/get_file", nil), "client-a")
	rec = httptest.NewRecorder()
	env.handler.GetFile(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ожидался 400, получен %d", rec.Code)
	}
}

// TestDeleteFiles: per-key статусы в теле 200.
func TestDeleteFiles(t *testing.T) {
	env := newTestEnv(t)
	env.store.objects["bucket-a/a.txt"] = []byte("x")

	req := withSubject(httptest.NewRequest(http.MethodDelete, "/delete_files?file_keys=a.txt&file_keys=missing.txt", nil), "client-a")
	rec := httptest.NewRecorder()
	env.handler.DeleteFiles(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	var statuses map[string]int
	decodeBody(t, rec, &statuses)
	if statuses["a.txt"] != 204 || statuses["missing.txt"] != 404 {
		t.Errorf("неверные статусы: %v", statuses)
	}
}

// TestDeleteFiles_NoKeys: без ключей — 400.
func TestDeleteFiles_NoKeys(t *testing.T) {
	env := newTestEnv(t)

	req := withSubject(httptest.NewRequest(http.MethodDelete, "/delete_files", nil), "client-a")
	rec := httptest.NewRecorder()
	env.handler.DeleteFiles(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ожидался 400, получен %d", rec.Code)
	}
}

// --- Проверочные endpoints ---

// TestVirusCheckFile: чистый файл — 200; без content-length — 411.
func TestVirusCheckFile(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, map[string][]string{"file": {"hello"}}, nil)
	req := httptest.NewRequest(http.MethodPut, "/virus_check_file", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprint(buf.Len()))
	rec := httptest.NewRecorder()
	env.handler.VirusCheckFile(rec, withSubject(req, "client-a"))
	if rec.Code != http.StatusOK {
		t.Errorf("ожидался 200, получен %d", rec.Code)
	}

	buf, contentType = multipartBody(t, map[string][]string{"file": {"hello"}}, nil)
	req = httptest.NewRequest(http.MethodPut, "/virus_check_file", buf)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.handler.VirusCheckFile(rec, withSubject(req, "client-a"))
	if rec.Code != http.StatusLengthRequired {
		t.Errorf("ожидался 411, получен %d", rec.Code)
	}
}

// TestScanForSuspiciousContent: подозрительная ячейка — 400 с номером строки.
func TestScanForSuspiciousContent(t *testing.T) {
	env := newTestEnv(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, _ := w.CreateFormFile("file", "data.csv")
	_, _ = io.WriteString(fw, "name,value\nsafe,ok\n=cmd(),bad\n")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPut, "/scan_for_suspicious_content", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ScanForSuspiciousContent(rec, withSubject(req, "client-a"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидался 400, получен %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Detail string `json:"detail"`
	}
	decodeBody(t, rec, &body)
	if !strings.Contains(body.Detail, "Problem in data.csv row 2") {
		t.Errorf("неожиданная деталь: %s", body.Detail)
	}
}

// TestScanForSuspiciousContent_Clean: чистый файл — 200.
func TestScanForSuspiciousContent_Clean(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, map[string][]string{"file": {"name,value\nsafe,ok\n"}}, nil)
	req := httptest.NewRequest(http.MethodPut, "/scan_for_suspicious_content", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ScanForSuspiciousContent(rec, withSubject(req, "client-a"))

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался 200, получен %d: %s", rec.Code, rec.Body.String())
	}
}
