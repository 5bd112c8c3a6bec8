// status.go — иерархическая модель health-статуса сервиса.
// Каждый компонент объявляет именованные проверки с исходом
// success/failure; начальное состояние проверки — failure.
package model

// CheckOutcome — исход одной проверки.
type CheckOutcome string

const (
	// CheckSuccess — проверка пройдена
	CheckSuccess CheckOutcome = "success"
	// CheckFailure — проверка не пройдена (начальное состояние)
	CheckFailure CheckOutcome = "failure"
)

// Observation — одна именованная проверка компонента.
type Observation struct {
	Name    string       `json:"name"`
	Outcome CheckOutcome `json:"outcome"`
}

// NewObservation создаёт проверку в начальном состоянии failure.
func NewObservation(name string) Observation {
	return Observation{Name: name, Outcome: CheckFailure}
}

// ServiceObservations — набор проверок одного компонента.
type ServiceObservations struct {
	ServiceName  string        `json:"service_name"`
	Observations []Observation `json:"observations"`
}

// AllSuccess сообщает, что все проверки компонента успешны.
func (s ServiceObservations) AllSuccess() bool {
	for _, o := range s.Observations {
		if o.Outcome != CheckSuccess {
			return false
		}
	}
	return true
}

// StatusReport — сводный отчёт по всем компонентам.
type StatusReport struct {
	Services     []ServiceObservations `json:"services"`
	IsAllSuccess bool                  `json:"is_all_success"`
}

// NewStatusReport собирает отчёт; IsAllSuccess истинно тогда и только
// тогда, когда каждая проверка каждого компонента успешна.
func NewStatusReport(services []ServiceObservations) StatusReport {
	all := true
	for _, s := range services {
		if !s.AllSuccess() {
			all = false
			break
		}
	}
	return StatusReport{Services: services, IsAllSuccess: all}
}
