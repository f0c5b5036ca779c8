package usecase

import (
	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/log"
	hcdomain "github.com/x-xyz/nftmarket/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
	}
}

func (im *impl) Check(c ctx.Ctx) *hcdomain.Status {
	status := hcdomain.NewStatus(im.repo.Ping(c))
	if !status.Healthy {
		c.WithFields(log.Fields{"components": status.Components}).Warn("unhealthy")
	}
	return status
}
