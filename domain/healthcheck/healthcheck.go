package healthcheck

import (
	"github.com/x-xyz/nftmarket/base/ctx"
)

const statusOk = "ok"

// Status reports every configured backend, Healthy only if all of them answered
type Status struct {
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

// NewStatus builds a Status from per backend ping results
func NewStatus(results map[string]error) *Status {
	s := &Status{Healthy: true, Components: map[string]string{}}
	for name, err := range results {
		if err != nil {
			s.Healthy = false
			s.Components[name] = err.Error()
			continue
		}
		s.Components[name] = statusOk
	}
	return s
}

type HealthCheckUsecase interface {
	Check(c ctx.Ctx) *Status
}

// HealthCheckRepo pings the storage backends, keyed by backend name
type HealthCheckRepo interface {
	Ping(c ctx.Ctx) map[string]error
}
