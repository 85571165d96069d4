package repository

import (
	"time"

	"github.com/nftprophet/goapi/base/ctx"
	hcdomain "github.com/nftprophet/goapi/domain/healthcheck"
	"github.com/nftprophet/goapi/domain/keys"
	"github.com/nftprophet/goapi/service/cache/provider"
)

type impl struct {
	cache provider.Provider
}

// New creates new healthCheckRepo object representation of HealthCheckRepo interface
func New(cache provider.Provider) hcdomain.HealthCheckRepo {
	return &impl{
		cache: cache,
	}
}

func (im *impl) PingCache(context ctx.Ctx) error {
	ctx, cancel := ctx.WithTimeout(context, 2*time.Second)
	defer cancel()

	key := keys.CacheKey(keys.PfxHealthCheck, "testset")
	if err := im.cache.Set(ctx, key, []byte("1"), 30*time.Second); err != nil {
		context.WithField("err", err).Error("test cache set failed")
		return err
	}
	if _, _, err := im.cache.Get(ctx, key); err != nil {
		context.WithField("err", err).Error("test cache get failed")
		return err
	}
	return nil
}
