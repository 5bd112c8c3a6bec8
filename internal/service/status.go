// status.go — сборка статус-репорта по зарегистрированным репортерам.
package service

import (
	"context"

	"github.com/bigkaa/sds/internal/domain/model"
)

// StatusReport опрашивает все зарегистрированные репортеры и собирает
// сводный отчёт. IsAllSuccess истинно только при успехе каждой проверки.
func (s *Service) StatusReport(ctx context.Context) model.StatusReport {
	services := make([]model.ServiceObservations, 0, len(s.reporters))
	for _, r := range s.reporters {
		services = append(services, r(ctx))
	}
	return model.NewStatusReport(services)
}

// AntivirusReporter оборачивает Ping антивирусного демона в репортер.
func AntivirusReporter(ping func() error) Reporter {
	return func(_ context.Context) model.ServiceObservations {
		obs := model.NewObservation("clamd_reachable")
		if err := ping(); err == nil {
			obs.Outcome = model.CheckSuccess
		}
		return model.ServiceObservations{
			ServiceName:  "antivirus",
			Observations: []model.Observation{obs},
		}
	}
}
