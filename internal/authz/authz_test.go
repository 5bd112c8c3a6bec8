package authz

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

// writePolicy записывает CSV-файл политик.
func writePolicy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestEnforce_FilePolicy проверяет allow/deny по политике из файла.
func TestEnforce_FilePolicy(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "policy.csv", "p, client-a, bucket-a, DELETE\n")

	e, err := New("", path, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if !e.Enforce("client-a", "bucket-a", "DELETE") {
		t.Error("ожидался allow для строки из политики")
	}
	if e.Enforce("client-a", "bucket-a", "READ") {
		t.Error("ожидался deny для отсутствующего action")
	}
	if e.Enforce("client-b", "bucket-a", "DELETE") {
		t.Error("ожидался deny для чужого subject")
	}
}

// TestEnforce_DirectoryPolicy проверяет обход директории и регистр расширения.
func TestEnforce_DirectoryPolicy(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.csv", "p, client-a, bucket-a, DELETE\n")
	writePolicy(t, dir, "b.CSV", "p, client-b, bucket-b, DELETE\n")
	writePolicy(t, dir, "ignored.txt", "p, client-c, bucket-c, DELETE\n")

	e, err := New("", dir, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if !e.Enforce("client-a", "bucket-a", "DELETE") {
		t.Error("политика из a.csv не загружена")
	}
	if !e.Enforce("client-b", "bucket-b", "DELETE") {
		t.Error("политика из b.CSV не загружена (расширение без учёта регистра)")
	}
	if e.Enforce("client-c", "bucket-c", "DELETE") {
		t.Error("не-CSV файл не должен загружаться")
	}
}

// TestEnforce_ColonSeparatedQuotedPaths проверяет список путей с кавычками.
func TestEnforce_ColonSeparatedQuotedPaths(t *testing.T) {
	dir := t.TempDir()
	p1 := writePolicy(t, dir, "one.csv", "p, s1, o1, a1\n")
	p2 := writePolicy(t, dir, "two.csv", "p, s2, o2, a2\n")

	e, err := New("", `"`+p1+`":'`+p2+`':/no/such/path`, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if !e.Enforce("s1", "o1", "a1") || !e.Enforce("s2", "o2", "a2") {
		t.Error("политики из обоих путей должны быть загружены")
	}
}

// TestReload подхватывает изменения файла политик.
func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := writePolicy(t, dir, "policy.csv", "p, client-a, bucket-a, DELETE\n")

	e, err := New("", path, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if e.Enforce("client-b", "bucket-b", "DELETE") {
		t.Fatal("преждевременный allow")
	}

	writePolicy(t, dir, "policy.csv", "p, client-b, bucket-b, DELETE\n")
	e.Reload()

	if !e.Enforce("client-b", "bucket-b", "DELETE") {
		t.Error("после Reload новая политика должна действовать")
	}
	if e.Enforce("client-a", "bucket-a", "DELETE") {
		t.Error("после Reload старая политика не должна действовать")
	}
}

// TestGroupingPolicy проверяет строки g при RBAC-модели.
func TestGroupingPolicy(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	rbacModel := `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`
	if err := os.WriteFile(modelPath, []byte(rbacModel), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writePolicy(t, dir, "policy.csv", "p, admins, bucket-a, DELETE\ng, client-a, admins\n")

	e, err := New(modelPath, path, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if !e.Enforce("client-a", "bucket-a", "DELETE") {
		t.Error("членство в группе должно давать allow")
	}
	if e.Enforce("client-b", "bucket-a", "DELETE") {
		t.Error("subject вне группы должен получать deny")
	}
}
