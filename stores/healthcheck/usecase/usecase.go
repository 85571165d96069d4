package usecase

import (
	"github.com/nftprophet/goapi/base/ctx"
	hcdomain "github.com/nftprophet/goapi/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{repo: repo}
}

// Check verifies the in-process cache is usable, the only stateful
// dependency this service carries
func (im *impl) Check(c ctx.Ctx) error {
	return im.repo.PingCache(c)
}
