// Пакет clientconfig — загрузка per-subject конфигураций клиентов SDS
// с TTL-кэшем. Источники опрашиваются по порядку из CONFIG_SOURCES:
//   - file — рекурсивный поиск ровно одного <subject>.json под CONFIG_DIR;
//   - env  — переменные LOCAL_CONFIG_* (учитывается только в комбинации
//     с другим источником).
//
// Неудачные загрузки (не найден, найден не один, ошибка разбора)
// кэшируются как nil на тот же TTL, чтобы не дёргать диск на каждый запрос.
package clientconfig

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/sds/internal/domain/model"
)

// Переменные окружения источника env.
const (
	envClientID    = "LOCAL_CONFIG_AZURE_CLIENT_ID"
	envBucketName  = "LOCAL_CONFIG_BUCKET_NAME"
	envDisplayName = "LOCAL_CONFIG_AZURE_DISPLAY_NAME"
)

// cacheMaxEntries — ёмкость LRU-кэша конфигураций.
const cacheMaxEntries = 1024

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sds_config_cache_hits_total",
		Help: "Общее количество попаданий в кэш конфигураций клиентов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sds_config_cache_misses_total",
		Help: "Общее количество промахов кэша конфигураций клиентов.",
	})
)

// Service — сервис конфигураций клиентов с TTL-кэшем по subject.
// Кэш потокобезопасен; перезагрузка по истечении TTL ленивая,
// гонка параллельных перезагрузок допустима (идемпотентное чтение).
type Service struct {
	dir     string
	sources []string
	cache   *expirable.LRU[string, *model.ClientConfig]
	logger  *slog.Logger
}

// New создаёт сервис конфигураций клиентов.
func New(dir string, sources []string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		dir:     dir,
		sources: sources,
		cache:   expirable.NewLRU[string, *model.ClientConfig](cacheMaxEntries, nil, ttl),
		logger:  logger.With(slog.String("component", "clientconfig")),
	}
}

// Get возвращает конфигурацию subject'а через кэш.
// nil означает, что конфигурация не найдена (в том числе закэшированный
// негативный результат).
func (s *Service) Get(subject string) *model.ClientConfig {
	if cfg, ok := s.cache.Get(subject); ok {
		cacheHitsTotal.Inc()
		return cfg
	}
	cacheMissesTotal.Inc()

	cfg := s.Load(subject)
	s.cache.Add(subject, cfg)
	return cfg
}

// Load загружает конфигурацию subject'а из источников по порядку,
// минуя кэш. Возвращает первую успешно загруженную или nil.
func (s *Service) Load(subject string) *model.ClientConfig {
	for _, source := range s.sources {
		switch source {
		case "file":
			if cfg := s.loadFromFile(subject); cfg != nil {
				return cfg
			}
		case "env":
			// env-источник имеет смысл только как дополнение к другому
			if len(s.sources) < 2 {
				s.logger.Warn("Источник env проигнорирован: требуется комбинация с другим источником")
				continue
			}
			if cfg := s.loadFromEnv(subject); cfg != nil {
				return cfg
			}
		}
	}
	return nil
}

// ClearCache сбрасывает все записи кэша.
func (s *Service) ClearCache() {
	s.cache.Purge()
}

// loadFromFile ищет ровно один файл <subject>.json под директорией
// конфигураций (рекурсивно). 0 или >1 совпадений — nil.
func (s *Service) loadFromFile(subject string) *model.ClientConfig {
	wanted := subject + ".json"
	var matches []string

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == wanted {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка обхода директории конфигураций",
			slog.String("dir", s.dir),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if len(matches) != 1 {
		s.logger.Warn("Конфигурация клиента не найдена или неоднозначна",
			slog.String("subject", subject),
			slog.Int("matches", len(matches)),
		)
		return nil
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		s.logger.Error("Ошибка чтения конфигурации клиента",
			slog.String("path", matches[0]),
			slog.String("error", err.Error()),
		)
		return nil
	}

	cfg := &model.ClientConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		s.logger.Error("Ошибка разбора конфигурации клиента",
			slog.String("path", matches[0]),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if cfg.AzureClientID == "" {
		cfg.AzureClientID = subject
	}
	return cfg
}

// loadFromEnv строит конфигурацию из LOCAL_CONFIG_*.
// Subject обязан совпадать с LOCAL_CONFIG_AZURE_CLIENT_ID.
func (s *Service) loadFromEnv(subject string) *model.ClientConfig {
	clientID := strings.TrimSpace(os.Getenv(envClientID))
	if clientID == "" || clientID != subject {
		return nil
	}
	return &model.ClientConfig{
		AzureClientID:    clientID,
		AzureDisplayName: os.Getenv(envDisplayName),
		BucketName:       os.Getenv(envBucketName),
	}
}

// Observations — проверки для статус-репорта: директория конфигураций
// существует и читается.
func (s *Service) Observations() model.ServiceObservations {
	obs := model.NewObservation("config_dir_readable")

	if hasFileSource(s.sources) {
		if info, err := os.Stat(s.dir); err == nil && info.IsDir() {
			obs.Outcome = model.CheckSuccess
		}
	} else {
		// Без file-источника директория не нужна
		obs.Outcome = model.CheckSuccess
	}

	return model.ServiceObservations{
		ServiceName:  "clientconfig",
		Observations: []model.Observation{obs},
	}
}

func hasFileSource(sources []string) bool {
	for _, s := range sources {
		if s == "file" {
			return true
		}
	}
	return false
}
