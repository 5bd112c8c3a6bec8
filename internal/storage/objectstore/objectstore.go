// Пакет objectstore — адаптер S3-совместимого объектного хранилища.
// Ключи имеют вид "<folder>/<filename>" либо "<filename>"; удаление
// затрагивает все версии объекта (версионирование бакетов включено
// на стороне хранилища).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/sds/internal/domain/model"
)

// metadataChecksumKey — ключ пользовательских метаданных с SHA-256 содержимого.
const metadataChecksumKey = "Sha256-Checksum"

// Prometheus-метрики хранилища.
var storeOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sds_objectstore_operations_total",
		Help: "Общее количество операций объектного хранилища.",
	},
	[]string{"operation", "result"},
)

// Store — операции SDS над объектным хранилищем.
type Store interface {
	// Exists сообщает о наличии объекта
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// Put записывает объект, создавая новую версию при перезаписи
	Put(ctx context.Context, bucket, key string, content []byte, contentType, checksum string) error
	// PresignedGet возвращает временную ссылку на скачивание
	PresignedGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// DeleteAllVersions удаляет все версии объекта; возвращает их количество
	DeleteAllVersions(ctx context.Context, bucket, key string) (int, error)
	// BucketExists сообщает о наличии бакета
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// Observations — проверки для статус-репорта
	Observations(ctx context.Context) model.ServiceObservations
}

// MinioStore — реализация Store поверх minio-go.
type MinioStore struct {
	client *minio.Client
	logger *slog.Logger
}

// New создаёт клиент объектного хранилища.
func New(endpoint, accessKey, secretKey string, useSSL bool, logger *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("создание клиента объектного хранилища: %w", err)
	}
	return &MinioStore{
		client: client,
		logger: logger.With(slog.String("component", "objectstore")),
	}, nil
}

// Exists проверяет наличие объекта через StatObject.
// Отсутствие объекта не является ошибкой.
func (s *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		storeOpsTotal.WithLabelValues("stat", "error").Inc()
		return false, fmt.Errorf("проверка наличия объекта %s/%s: %w", bucket, key, err)
	}
	storeOpsTotal.WithLabelValues("stat", "success").Inc()
	return true, nil
}

// Put записывает объект. SHA-256 содержимого сохраняется в пользовательских
// метаданных; при версионированном бакете перезапись создаёт новую версию.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, content []byte, contentType, checksum string) error {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{metadataChecksumKey: checksum},
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		storeOpsTotal.WithLabelValues("put", "error").Inc()
		s.logger.Error("Ошибка записи объекта",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("запись объекта %s/%s: %w", bucket, key, err)
	}

	storeOpsTotal.WithLabelValues("put", "success").Inc()
	s.logger.Info("Объект записан",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int("size", len(content)),
	)
	return nil
}

// PresignedGet возвращает временную ссылку на скачивание объекта.
func (s *MinioStore) PresignedGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		storeOpsTotal.WithLabelValues("presign", "error").Inc()
		return "", fmt.Errorf("генерация ссылки для %s/%s: %w", bucket, key, err)
	}
	storeOpsTotal.WithLabelValues("presign", "success").Inc()
	return u.String(), nil
}

// DeleteAllVersions перечисляет и удаляет все версии объекта по точному
// ключу. Возвращает количество удалённых версий; 0 — объект не найден.
func (s *MinioStore) DeleteAllVersions(ctx context.Context, bucket, key string) (int, error) {
	objects := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:       key,
		WithVersions: true,
	})

	deleted := 0
	for obj := range objects {
		if obj.Err != nil {
			storeOpsTotal.WithLabelValues("delete", "error").Inc()
			return deleted, fmt.Errorf("перечисление версий %s/%s: %w", bucket, key, obj.Err)
		}
		// Prefix-совпадения других ключей пропускаются
		if obj.Key != key {
			continue
		}

		err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{
			VersionID: obj.VersionID,
		})
		if err != nil {
			storeOpsTotal.WithLabelValues("delete", "error").Inc()
			return deleted, fmt.Errorf("удаление версии %s объекта %s/%s: %w", obj.VersionID, bucket, key, err)
		}
		deleted++
	}

	storeOpsTotal.WithLabelValues("delete", "success").Inc()
	s.logger.Info("Версии объекта удалены",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int("versions", deleted),
	)
	return deleted, nil
}

// BucketExists проверяет наличие бакета.
func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("проверка бакета %s: %w", bucket, err)
	}
	return exists, nil
}

// Observations — проверки для статус-репорта: хранилище отвечает.
func (s *MinioStore) Observations(ctx context.Context) model.ServiceObservations {
	obs := model.NewObservation("objectstore_reachable")

	// ListBuckets как лёгкая проверка доступности endpoint'а
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.client.ListBuckets(checkCtx); err == nil {
		obs.Outcome = model.CheckSuccess
	}

	return model.ServiceObservations{
		ServiceName:  "objectstore",
		Observations: []model.Observation{obs},
	}
}
