package clientconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeConfig записывает JSON-конфигурацию клиента в указанную поддиректорию.
func writeConfig(t *testing.T, dir, subdir, subject, content string) {
	t.Helper()
	target := filepath.Join(dir, subdir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, subject+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestLoadFromFile_Recursive проверяет рекурсивный поиск конфигурации.
func TestLoadFromFile_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "nested/deeper", "client-a",
		`{"azure_client_id":"client-a","azure_display_name":"svc-a","bucket_name":"bucket-a"}`)

	svc := New(dir, []string{"file"}, time.Minute, testLogger())
	cfg := svc.Get("client-a")
	if cfg == nil {
		t.Fatal("конфигурация не найдена")
	}
	if cfg.BucketName != "bucket-a" || cfg.AzureDisplayName != "svc-a" {
		t.Errorf("неожиданная конфигурация: %+v", cfg)
	}
}

// TestLoadFromFile_Aliases проверяет импортные алиасы полей.
func TestLoadFromFile_Aliases(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "", "client-b",
		`{"username":"client-b","requesting_service_id":"svc-b","storage_id":"bucket-b",
		  "validators":[{"type":"MaxFileSize","kwargs":{"size":10}}]}`)

	svc := New(dir, []string{"file"}, time.Minute, testLogger())
	cfg := svc.Get("client-b")
	if cfg == nil {
		t.Fatal("конфигурация не найдена")
	}
	if cfg.AzureClientID != "client-b" || cfg.AzureDisplayName != "svc-b" || cfg.BucketName != "bucket-b" {
		t.Errorf("алиасы полей не применились: %+v", cfg)
	}
	if len(cfg.FileValidators) != 1 || cfg.FileValidators[0].Name != "MaxFileSize" {
		t.Fatalf("алиасы валидаторов не применились: %+v", cfg.FileValidators)
	}
	if v, ok := cfg.FileValidators[0].ValidatorKwargs["size"]; !ok || v != float64(10) {
		t.Errorf("kwargs не разобраны: %+v", cfg.FileValidators[0].ValidatorKwargs)
	}
}

// TestLoadFromFile_DuplicateMatches: два файла с одним именем — nil.
func TestLoadFromFile_DuplicateMatches(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "one", "client-c", `{"bucket_name":"x"}`)
	writeConfig(t, dir, "two", "client-c", `{"bucket_name":"y"}`)

	svc := New(dir, []string{"file"}, time.Minute, testLogger())
	if cfg := svc.Get("client-c"); cfg != nil {
		t.Errorf("ожидался nil при неоднозначном совпадении, получено %+v", cfg)
	}
}

// TestLoadFromFile_ParseError: битый JSON — nil, закэшированный на TTL.
func TestLoadFromFile_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "", "client-d", `{not json`)

	svc := New(dir, []string{"file"}, time.Minute, testLogger())
	if cfg := svc.Get("client-d"); cfg != nil {
		t.Errorf("ожидался nil при ошибке разбора, получено %+v", cfg)
	}

	// Негативный результат закэширован: правка файла не видна до истечения TTL
	writeConfig(t, dir, "", "client-d", `{"bucket_name":"fixed"}`)
	if cfg := svc.Get("client-d"); cfg != nil {
		t.Errorf("негативный результат должен кэшироваться, получено %+v", cfg)
	}
}

// TestGet_CacheTTL: в пределах TTL возвращается закэшированный объект,
// после истечения — перезагрузка.
func TestGet_CacheTTL(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "", "client-e", `{"bucket_name":"before"}`)

	svc := New(dir, []string{"file"}, 50*time.Millisecond, testLogger())

	first := svc.Get("client-e")
	if first == nil || first.BucketName != "before" {
		t.Fatalf("неожиданная конфигурация: %+v", first)
	}

	// Правка внутри TTL не видна
	writeConfig(t, dir, "", "client-e", `{"bucket_name":"after"}`)
	second := svc.Get("client-e")
	if second != first {
		t.Error("в пределах TTL ожидался тот же объект конфигурации")
	}

	// После истечения TTL — перезагрузка
	time.Sleep(80 * time.Millisecond)
	third := svc.Get("client-e")
	if third == nil || third.BucketName != "after" {
		t.Errorf("после TTL ожидалась перезагрузка, получено %+v", third)
	}
}

// TestClearCache сбрасывает кэш немедленно.
func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "", "client-f", `{"bucket_name":"before"}`)

	svc := New(dir, []string{"file"}, time.Minute, testLogger())
	if cfg := svc.Get("client-f"); cfg == nil || cfg.BucketName != "before" {
		t.Fatalf("неожиданная конфигурация: %+v", cfg)
	}

	writeConfig(t, dir, "", "client-f", `{"bucket_name":"after"}`)
	svc.ClearCache()

	if cfg := svc.Get("client-f"); cfg == nil || cfg.BucketName != "after" {
		t.Errorf("после ClearCache ожидалась перезагрузка, получено %+v", cfg)
	}
}

// TestLoadFromEnv проверяет env-источник в комбинации с file.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv(envClientID, "client-env")
	t.Setenv(envBucketName, "bucket-env")
	t.Setenv(envDisplayName, "svc-env")

	svc := New(t.TempDir(), []string{"file", "env"}, time.Minute, testLogger())

	cfg := svc.Get("client-env")
	if cfg == nil {
		t.Fatal("конфигурация из env не загружена")
	}
	if cfg.BucketName != "bucket-env" || cfg.AzureDisplayName != "svc-env" {
		t.Errorf("неожиданная конфигурация: %+v", cfg)
	}

	// Чужой subject не совпадает с LOCAL_CONFIG_AZURE_CLIENT_ID
	if cfg := svc.Load("other-subject"); cfg != nil {
		t.Errorf("ожидался nil для чужого subject, получено %+v", cfg)
	}
}

// TestLoadFromEnv_SoleSourceIgnored: env как единственный источник игнорируется.
func TestLoadFromEnv_SoleSourceIgnored(t *testing.T) {
	t.Setenv(envClientID, "client-env")
	t.Setenv(envBucketName, "bucket-env")

	svc := New(t.TempDir(), []string{"env"}, time.Minute, testLogger())
	if cfg := svc.Get("client-env"); cfg != nil {
		t.Errorf("env-источник без комбинации должен игнорироваться, получено %+v", cfg)
	}
}

// TestObservations проверяет статус-репортер.
func TestObservations(t *testing.T) {
	svc := New(t.TempDir(), []string{"file"}, time.Minute, testLogger())
	obs := svc.Observations()
	if !obs.AllSuccess() {
		t.Errorf("существующая директория должна давать success: %+v", obs)
	}

	missing := New("/nonexistent/path", []string{"file"}, time.Minute, testLogger())
	if missing.Observations().AllSuccess() {
		t.Error("отсутствующая директория должна давать failure")
	}
}
