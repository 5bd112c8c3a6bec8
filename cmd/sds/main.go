// Точка входа Secure Document Storage — сервиса защищённого
// хранения документов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/sds/internal/antivirus"
	"github.com/bigkaa/sds/internal/api/handlers"
	"github.com/bigkaa/sds/internal/api/middleware"
	"github.com/bigkaa/sds/internal/audit"
	"github.com/bigkaa/sds/internal/authz"
	"github.com/bigkaa/sds/internal/clientconfig"
	"github.com/bigkaa/sds/internal/config"
	"github.com/bigkaa/sds/internal/domain/model"
	"github.com/bigkaa/sds/internal/server"
	"github.com/bigkaa/sds/internal/service"
	"github.com/bigkaa/sds/internal/storage/objectstore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("SDS запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("config_dir", cfg.ConfigDir),
	)

	ctx := context.Background()

	// --- Инициализация компонентов ---

	// 1. Конфигурации клиентов с TTL-кэшем
	configs := clientconfig.New(cfg.ConfigDir, cfg.ConfigSources, cfg.ConfigTTL, logger)

	// 2. Объектное хранилище
	store, err := objectstore.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL, logger)
	if err != nil {
		logger.Error("Ошибка инициализации объектного хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Антивирусный клиент (один на процесс)
	av := antivirus.New(cfg.ClamdAddress(), logger)

	// 4. Sink аудита
	sink := audit.NewDynamoSink(cfg.AWSRegion, cfg.AuditEndpoint, cfg.AuditTable, logger)
	if cfg.AuditTable == "" {
		logger.Warn("AUDIT_TABLE не задана: запись аудита будет завершаться ошибкой")
	}

	// 5. Авторизатор с периодической перезагрузкой политик
	enforcer, err := authz.New(cfg.CasbinModel, cfg.CasbinPolicy, cfg.CasbinReloadInterval, logger)
	if err != nil {
		logger.Error("Ошибка инициализации авторизатора", slog.String("error", err.Error()))
		os.Exit(1)
	}
	enforcer.Start(ctx)

	// 6. Data-plane сервис
	svc := service.New(store, av, sink, enforcer, cfg.PresignTTL, logger)
	svc.AddReporter(func(_ context.Context) model.ServiceObservations { return configs.Observations() })
	svc.AddReporter(service.AntivirusReporter(av.Ping))
	svc.AddReporter(store.Observations)
	svc.AddReporter(func(_ context.Context) model.ServiceObservations { return sink.Observations() })

	// 7. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"sds",
		cfg.DephealthGroup,
		cfg.DiscoveryURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		}
	}

	// 8. Аутентификатор (OIDC discovery + JWKS)
	auth, err := middleware.NewAuthenticator(ctx, middleware.AuthConfig{
		DiscoveryURL:    cfg.DiscoveryURL(),
		DiscoveryTTL:    cfg.OIDCTTL,
		Audience:        cfg.Audience,
		Issuer:          cfg.Issuer(),
		RefreshInterval: cfg.JWKSRefreshInterval,
	}, logger)
	if err != nil {
		logger.Error("Ошибка инициализации аутентификатора", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Handlers и HTTP-сервер
	h := handlers.New(svc, configs, logger)
	srv := server.New(cfg, logger, h, auth)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	enforcer.Stop()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("SDS остановлен")
}
