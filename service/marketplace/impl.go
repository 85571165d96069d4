package marketplace

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/log"
	"github.com/nftprophet/goapi/base/metrics"
	"github.com/nftprophet/goapi/base/validator"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/asset"
	"github.com/nftprophet/goapi/domain/keys"
	"github.com/nftprophet/goapi/service/cache"
	"github.com/nftprophet/goapi/service/cache/provider/primitive"
	"golang.org/x/xerrors"
)

const (
	bearerKey = "X-API-KEY"
	v1Api     = "https://api.opensea.io/api/v1"

	defaultSearchLimit = 20
	maxHistoryPoints   = 30
)

func NewClient(cfg *ClientCfg) Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = v1Api
	}
	return &client{
		client:  cfg.HttpClient,
		timeout: cfg.Timeout,
		apikey:  cfg.Apikey,
		baseUrl: baseUrl,
		met:     metrics.New("marketplace"),
		statsCache: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   keys.PfxCollectionStats,
			Cache: primitive.NewPrimitive("marketplace_stats_cache", 4),
		}),
	}
}

type client struct {
	client     http.Client
	timeout    time.Duration
	apikey     string
	baseUrl    string
	met        metrics.Service
	statsCache cache.Service
}

// SearchAssets is best effort enrichment, zero matches and upstream failures
// both come back as an empty slice
func (c *client) SearchAssets(ctx bCtx.Ctx, query string, limit int) []*asset.Asset {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	params := url.Values{}
	params.Add("search", query)
	params.Add("limit", strconv.Itoa(limit))
	url := fmt.Sprintf("%s/assets?%s", c.baseUrl, params.Encode())

	data, err := c.get(ctx, url)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Warn("asset search degraded to empty result")
		return nil
	}

	resp := AssetsResp{}
	if err := json.Unmarshal(data, &resp); err != nil {
		ctx.WithField("err", err).Warn("json.Unmarshal failed")
		return nil
	}

	res := make([]*asset.Asset, 0, len(resp.Assets))
	for i := range resp.Assets {
		res = append(res, FormatAsset(&resp.Assets[i]))
	}
	return res
}

// GetAssetByContractAndToken validates its input before any network call
func (c *client) GetAssetByContractAndToken(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (*asset.Asset, error) {
	if !validator.IsValidAddress(string(contract)) {
		return nil, xerrors.Errorf("%s: %w", domain.ErrInvalidAddress, domain.ErrInvalidInput)
	}
	if tokenId.IsBlank() {
		return nil, xerrors.Errorf("%s: %w", domain.ErrInvalidTokenId, domain.ErrInvalidInput)
	}

	url := fmt.Sprintf("%s/asset/%s/%s/", c.baseUrl, contract.ToLowerStr(), tokenId)
	data, err := c.get(ctx, url)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("c.get failed")
		return nil, err
	}

	raw := RawAsset{}
	if err := json.Unmarshal(data, &raw); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	return FormatAsset(&raw), nil
}

// GetCollectionStats never propagates upstream failures, stats are optional
// enrichment. Successful fetches are cached for a minute.
func (c *client) GetCollectionStats(ctx bCtx.Ctx, slug string) *asset.CollectionStats {
	stats := asset.CollectionStats{}
	if err := c.statsCache.GetByFunc(ctx, slug, &stats, func() (interface{}, error) {
		return c.getCollectionStats(ctx, slug)
	}); err != nil {
		ctx.WithFields(log.Fields{
			"slug": slug,
			"err":  err,
		}).Warn("collection stats degraded to zero values")
		return &asset.CollectionStats{}
	}
	return &stats
}

func (c *client) getCollectionStats(ctx bCtx.Ctx, slug string) (*asset.CollectionStats, error) {
	url := fmt.Sprintf("%s/collection/%s/stats", c.baseUrl, slug)
	data, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	resp := StatsResp{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &asset.CollectionStats{
		FloorPrice:  resp.Stats.FloorPrice,
		MarketCap:   resp.Stats.MarketCap,
		NumOwners:   resp.Stats.NumOwners,
		TotalSupply: resp.Stats.TotalSupply,
		TotalVolume: resp.Stats.TotalVolume,
		TotalSales:  resp.Stats.TotalSales,
	}, nil
}

// GetAssetPriceHistory maps successful sale events into chronological price
// points. Enrichment only, failures degrade to an empty history.
func (c *client) GetAssetPriceHistory(ctx bCtx.Ctx, contract domain.Address) []asset.PricePoint {
	params := url.Values{}
	params.Add("asset_contract_address", contract.ToLowerStr())
	params.Add("event_type", "successful")
	params.Add("limit", strconv.Itoa(maxHistoryPoints))
	url := fmt.Sprintf("%s/events?%s", c.baseUrl, params.Encode())

	data, err := c.get(ctx, url)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Warn("price history degraded to empty result")
		return nil
	}

	resp := EventsResp{}
	if err := json.Unmarshal(data, &resp); err != nil {
		ctx.WithField("err", err).Warn("json.Unmarshal failed")
		return nil
	}

	points := make([]asset.PricePoint, 0, len(resp.AssetEvents))
	for _, ev := range resp.AssetEvents {
		price, err := weiToUnit(ev.TotalPrice, ev.PaymentToken.Decimals)
		if err != nil {
			ctx.WithFields(log.Fields{
				"totalPrice": ev.TotalPrice,
				"err":        err,
			}).Warn("skipping unparseable sale event")
			continue
		}
		points = append(points, asset.PricePoint{
			Date:  dayOf(ev.CreatedDate),
			Price: price,
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// dayOf trims an upstream timestamp down to its calendar day
func dayOf(createdDate string) string {
	if t, err := time.Parse("2006-01-02T15:04:05.999999", createdDate); err == nil {
		return t.Format("2006-01-02")
	}
	if len(createdDate) >= 10 {
		return createdDate[:10]
	}
	return createdDate
}

func (c *client) get(ctx bCtx.Ctx, url string) ([]byte, error) {
	defer c.met.BumpTime("request.latency").End()

	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, err
	}
	req.Header.Set(bearerKey, c.apikey)
	resp, err := c.client.Do(req)
	if err != nil {
		c.met.BumpSum("request.err", 1, "kind", "network")
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("client.Do failed")
		return nil, xerrors.Errorf("%s: %w", err, domain.ErrNetwork)
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode, resp.Body); err != nil {
		c.met.BumpSum("request.err", 1, "kind", strconv.Itoa(resp.StatusCode))
		ctx.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, err
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("failed to read body")
		return nil, err
	}
	return body, nil
}

// statusToError maps upstream statuses onto the domain error taxonomy
func statusToError(statusCode int, body io.Reader) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	switch statusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	default:
		b, _ := ioutil.ReadAll(io.LimitReader(body, 2048))
		return &domain.UpstreamError{StatusCode: statusCode, Body: string(b)}
	}
}
