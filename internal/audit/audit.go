// Пакет audit — append-only sink строк аудита в DynamoDB.
// Таблица: partition key request_id, sort key filename_position.
// Имя таблицы (AUDIT_TABLE) проверяется в момент записи: отсутствие —
// ошибка конфигурации, запись не выполняется.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/sds/internal/domain/model"
)

// Prometheus-метрики аудита.
var auditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sds_audit_writes_total",
		Help: "Общее количество записей строк аудита.",
	},
	[]string{"operation", "result"},
)

// Sink — приёмник строк аудита.
type Sink interface {
	// Write добавляет одну строку аудита
	Write(ctx context.Context, record model.AuditRecord) error
	// Observations — проверки для статус-репорта
	Observations() model.ServiceObservations
}

// DynamoSink — sink аудита поверх DynamoDB.
type DynamoSink struct {
	db     *dynamodb.DynamoDB
	table  string
	logger *slog.Logger
}

// NewDynamoSink создаёт sink аудита. endpoint — опциональный адрес
// локального DynamoDB (пустая строка — стандартный AWS endpoint).
func NewDynamoSink(region, endpoint, table string, logger *slog.Logger) *DynamoSink {
	awsCfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
	}
	sess := session.Must(session.NewSession(awsCfg))

	return &DynamoSink{
		db:     dynamodb.New(sess),
		table:  table,
		logger: logger.With(slog.String("component", "audit")),
	}
}

// Write добавляет строку аудита в таблицу.
func (s *DynamoSink) Write(ctx context.Context, record model.AuditRecord) error {
	if s.table == "" {
		return fmt.Errorf("AUDIT_TABLE не задана, запись аудита невозможна")
	}

	item, err := dynamodbattribute.MarshalMap(record)
	if err != nil {
		auditWritesTotal.WithLabelValues(string(record.OperationType), "error").Inc()
		return fmt.Errorf("сериализация строки аудита: %w", err)
	}

	_, err = s.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		auditWritesTotal.WithLabelValues(string(record.OperationType), "error").Inc()
		s.logger.Error("Ошибка записи строки аудита",
			slog.String("request_id", record.RequestID),
			slog.Int("position", record.FilenamePosition),
			slog.String("error", err.Error()),
		)
		return err
	}

	auditWritesTotal.WithLabelValues(string(record.OperationType), "success").Inc()
	return nil
}

// Observations — проверки для статус-репорта: имя таблицы задано.
func (s *DynamoSink) Observations() model.ServiceObservations {
	obs := model.NewObservation("audit_table_configured")
	if s.table != "" {
		obs.Outcome = model.CheckSuccess
	}
	return model.ServiceObservations{
		ServiceName:  "audit",
		Observations: []model.Observation{obs},
	}
}
