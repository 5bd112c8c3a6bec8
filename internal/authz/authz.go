// Пакет authz — model-driven авторизация на casbin.
// Модель задаётся CASBIN_MODEL (или встроенной ACL-моделью), политики —
// CASBIN_POLICY: список путей через ":", каждый путь — файл либо
// директория с *.csv (без учёта регистра). Политики перезагружаются
// периодически (CASBIN_RELOAD_INTERVAL); энфорсер подменяется атомарно
// под RWMutex — читатели видят либо старый, либо новый набор целиком.
package authz

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultModel — встроенная ACL-модель (subject, object, action),
// используется когда CASBIN_MODEL не задан.
const defaultModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Prometheus-метрики авторизатора.
var (
	policyReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sds_authz_policy_reloads_total",
			Help: "Общее количество перезагрузок политик авторизации.",
		},
		[]string{"result"},
	)
	enforceDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sds_authz_denied_total",
		Help: "Общее количество отклонённых авторизационных проверок.",
	})
)

// Enforcer — авторизатор с периодической перезагрузкой политик.
type Enforcer struct {
	modelPath   string
	policyPaths string
	interval    time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	enforcer *casbin.Enforcer

	cancel context.CancelFunc
}

// New создаёт авторизатор и выполняет первую загрузку политик.
func New(modelPath, policyPaths string, interval time.Duration, logger *slog.Logger) (*Enforcer, error) {
	e := &Enforcer{
		modelPath:   modelPath,
		policyPaths: policyPaths,
		interval:    interval,
		logger:      logger.With(slog.String("component", "authz")),
	}

	enf, err := e.build()
	if err != nil {
		return nil, fmt.Errorf("загрузка политик авторизации: %w", err)
	}
	e.enforcer = enf
	return e, nil
}

// Start запускает фоновую горутину периодической перезагрузки политик.
func (e *Enforcer) Start(ctx context.Context) {
	reloadCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	go e.run(reloadCtx)

	e.logger.Info("Перезагрузка политик запущена",
		slog.String("interval", e.interval.String()),
	)
}

// Stop останавливает фоновую перезагрузку.
func (e *Enforcer) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.logger.Info("Перезагрузка политик остановлена")
}

// run — основной цикл фоновой горутины.
func (e *Enforcer) run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Reload()
		}
	}
}

// Reload перестраивает энфорсер из файлов политик и атомарно подменяет его.
func (e *Enforcer) Reload() {
	enf, err := e.build()
	if err != nil {
		policyReloadsTotal.WithLabelValues("error").Inc()
		e.logger.Error("Ошибка перезагрузки политик, действует прежний набор",
			slog.String("error", err.Error()),
		)
		return
	}

	e.mu.Lock()
	e.enforcer = enf
	e.mu.Unlock()

	policyReloadsTotal.WithLabelValues("success").Inc()
	e.logger.Debug("Политики перезагружены")
}

// Enforce возвращает решение allow/deny для (subject, object, action).
// Ошибка энфорсера трактуется как deny.
func (e *Enforcer) Enforce(subject, object, action string) bool {
	e.mu.RLock()
	enf := e.enforcer
	e.mu.RUnlock()

	allowed, err := enf.Enforce(subject, object, action)
	if err != nil {
		e.logger.Error("Ошибка авторизационной проверки",
			slog.String("subject", subject),
			slog.String("object", object),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !allowed {
		enforceDeniedTotal.Inc()
	}
	return allowed
}

// build создаёт энфорсер из модели и всех найденных CSV-политик.
func (e *Enforcer) build() (*casbin.Enforcer, error) {
	var m casbinmodel.Model
	var err error
	if e.modelPath != "" {
		m, err = casbinmodel.NewModelFromFile(e.modelPath)
	} else {
		m, err = casbinmodel.NewModelFromString(defaultModel)
	}
	if err != nil {
		return nil, fmt.Errorf("модель casbin: %w", err)
	}

	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("создание энфорсера: %w", err)
	}

	for _, path := range e.resolvePolicyFiles() {
		if err := loadPolicyFile(enf, path); err != nil {
			return nil, fmt.Errorf("политика %s: %w", path, err)
		}
	}
	return enf, nil
}

// resolvePolicyFiles разворачивает CASBIN_POLICY в список CSV-файлов:
// пути разделены ":", окружающие кавычки обрезаются, директории
// обходятся рекурсивно (*.csv без учёта регистра), неизвестные пути
// логируются и пропускаются.
func (e *Enforcer) resolvePolicyFiles() []string {
	var files []string

	for _, raw := range strings.Split(e.policyPaths, ":") {
		path := strings.Trim(strings.TrimSpace(raw), `"'`)
		if path == "" {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			e.logger.Warn("Путь политики не найден, пропущен", slog.String("path", path))
			continue
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
				files = append(files, p)
			}
			return nil
		})
	}
	return files
}

// loadPolicyFile добавляет строки CSV-файла политик в энфорсер.
// Формат строки: ptype, поля через запятую; пустые строки и
// комментарии (#) пропускаются.
func loadPolicyFile(enf *casbin.Enforcer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Split(line, ",")
		for i := range tokens {
			tokens[i] = strings.Trim(strings.TrimSpace(tokens[i]), `"'`)
		}
		if len(tokens) < 2 {
			continue
		}

		ptype := tokens[0]
		fields := make([]interface{}, 0, len(tokens)-1)
		for _, t := range tokens[1:] {
			fields = append(fields, t)
		}

		if strings.HasPrefix(ptype, "g") {
			_, err = enf.AddNamedGroupingPolicy(ptype, fields...)
		} else {
			_, err = enf.AddNamedPolicy(ptype, fields...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
