// Пакет antivirus — клиент антивирусного демона clamd.
// Содержимое файла стримится демону командой INSTREAM (go-clamd),
// вердикт транслируется в исход (status_code, detail).
// Экземпляр создаётся один раз в main и передаётся сервисам.
package antivirus

import (
	"bytes"
	"context"
	"log/slog"

	clamd "github.com/dutchcoders/go-clamd"

	"github.com/bigkaa/sds/internal/domain/model"
)

// Детали исходов сканирования.
const (
	DetailClean      = "file has no virus"
	DetailVirusFound = "Virus Found"
	DetailError      = "Error occurred while processing"
)

// Scanner — клиент clamd.
type Scanner struct {
	clam   *clamd.Clamd
	logger *slog.Logger
}

// New создаёт клиента clamd по адресу вида tcp://host:port.
func New(address string, logger *slog.Logger) *Scanner {
	return &Scanner{
		clam:   clamd.NewClamd(address),
		logger: logger.With(slog.String("component", "antivirus")),
	}
}

// Scan стримит содержимое файла демону и возвращает исход:
// OK → (200, "file has no virus"), FOUND → (400, "Virus Found"),
// прочее (ошибка демона, обрыв соединения) → (500, "Error occurred while processing").
func (s *Scanner) Scan(ctx context.Context, content []byte) model.Outcome {
	abort := make(chan bool)
	defer close(abort)

	resultCh, err := s.clam.ScanStream(bytes.NewReader(content), abort)
	if err != nil {
		s.logger.Error("Ошибка соединения с clamd", slog.String("error", err.Error()))
		return model.Outcome{StatusCode: 500, Detail: DetailError}
	}

	select {
	case result, ok := <-resultCh:
		if !ok || result == nil {
			s.logger.Error("clamd не вернул вердикт")
			return model.Outcome{StatusCode: 500, Detail: DetailError}
		}
		return mapVerdict(result.Status, result.Description, s.logger)
	case <-ctx.Done():
		s.logger.Warn("Сканирование прервано", slog.String("error", ctx.Err().Error()))
		return model.Outcome{StatusCode: 500, Detail: DetailError}
	}
}

// Ping проверяет доступность демона (для /status).
func (s *Scanner) Ping() error {
	return s.clam.Ping()
}

// mapVerdict транслирует вердикт clamd в исход пайплайна.
func mapVerdict(status, description string, logger *slog.Logger) model.Outcome {
	switch status {
	case clamd.RES_OK:
		return model.Outcome{StatusCode: 200, Detail: DetailClean}
	case clamd.RES_FOUND:
		logger.Warn("Обнаружен вирус", slog.String("signature", description))
		return model.Outcome{StatusCode: 400, Detail: DetailVirusFound}
	default:
		logger.Error("Неожиданный вердикт clamd",
			slog.String("status", status),
			slog.String("description", description),
		)
		return model.Outcome{StatusCode: 500, Detail: DetailError}
	}
}
