package marketplace

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/asset"
)

// Client wraps the marketplace v1 REST api.
//
// Identity lookups (GetAssetByContractAndToken) surface errors because the
// caller needs to know the asset truly does not exist. Enrichment lookups
// (SearchAssets, GetCollectionStats, GetAssetPriceHistory) swallow upstream
// failures and degrade to empty defaults.
type Client interface {
	SearchAssets(c bCtx.Ctx, query string, limit int) []*asset.Asset
	GetAssetByContractAndToken(c bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (*asset.Asset, error)
	GetCollectionStats(c bCtx.Ctx, slug string) *asset.CollectionStats
	GetAssetPriceHistory(c bCtx.Ctx, contract domain.Address) []asset.PricePoint
}

type ClientCfg struct {
	HttpClient http.Client
	Timeout    time.Duration
	Apikey     string
	BaseUrl    string
}

type RawTrait struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

type RawPaymentToken struct {
	Decimals int    `json:"decimals"`
	EthPrice string `json:"eth_price"`
}

type RawSale struct {
	TotalPrice   string          `json:"total_price"`
	PaymentToken RawPaymentToken `json:"payment_token"`
	EventTime    string          `json:"event_timestamp"`
}

type RawSellOrder struct {
	CurrentPrice         string          `json:"current_price"`
	PaymentTokenContract RawPaymentToken `json:"payment_token_contract"`
}

type RawAsset struct {
	Id               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	TokenId          string `json:"token_id"`
	ImageUrl         string `json:"image_url"`
	ImageOriginalUrl string `json:"image_original_url"`
	ImagePreviewUrl  string `json:"image_preview_url"`
	AssetContract    struct {
		Address string `json:"address"`
	} `json:"asset_contract"`
	Collection struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"collection"`
	Traits     []RawTrait      `json:"traits"`
	LastSale   *RawSale        `json:"last_sale"`
	SellOrders []*RawSellOrder `json:"sell_orders"`
}

type AssetsResp struct {
	Assets []RawAsset `json:"assets"`
}

type StatsResp struct {
	Stats struct {
		FloorPrice  float64 `json:"floor_price"`
		MarketCap   float64 `json:"market_cap"`
		NumOwners   int64   `json:"num_owners"`
		TotalSupply float64 `json:"total_supply"`
		TotalVolume float64 `json:"total_volume"`
		TotalSales  float64 `json:"total_sales"`
	} `json:"stats"`
}

type RawSaleEvent struct {
	TotalPrice   string          `json:"total_price"`
	PaymentToken RawPaymentToken `json:"payment_token"`
	CreatedDate  string          `json:"created_date"`
}

type EventsResp struct {
	AssetEvents []RawSaleEvent `json:"asset_events"`
}

// FormatAsset maps one raw marketplace record into its canonical shape.
// Name falls back to "{collection} #{tokenId}" when blank, image falls back
// through primary, original and preview urls.
func FormatAsset(raw *RawAsset) *asset.Asset {
	a := &asset.Asset{
		Id:              strconv.FormatInt(raw.Id, 10),
		Name:            raw.Name,
		CollectionName:  raw.Collection.Name,
		CollectionSlug:  raw.Collection.Slug,
		ContractAddress: domain.Address(raw.AssetContract.Address).ToLower(),
		TokenId:         domain.TokenId(raw.TokenId),
		Description:     raw.Description,
		ImageUrl:        firstNonBlank(raw.ImageUrl, raw.ImageOriginalUrl, raw.ImagePreviewUrl),
		CurrentPrice:    currentPriceOf(raw),
	}

	a.Name = a.DisplayName()

	// trait order from the source api is display order, keep it
	for _, t := range raw.Traits {
		a.Traits = append(a.Traits, asset.Trait{
			Type:  t.TraitType,
			Value: stringifyTraitValue(t.Value),
		})
	}

	return a
}

func firstNonBlank(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func stringifyTraitValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}

// currentPriceOf prefers the active listing price over the last sale price
func currentPriceOf(raw *RawAsset) float64 {
	if len(raw.SellOrders) > 0 && raw.SellOrders[0] != nil {
		if p, err := weiToUnit(raw.SellOrders[0].CurrentPrice, raw.SellOrders[0].PaymentTokenContract.Decimals); err == nil {
			return p
		}
	}
	if raw.LastSale != nil {
		if p, err := weiToUnit(raw.LastSale.TotalPrice, raw.LastSale.PaymentToken.Decimals); err == nil {
			return p
		}
	}
	return 0
}

// weiToUnit converts a base-unit price string into a display price
func weiToUnit(price string, decimals int) (float64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, err
	}
	if decimals == 0 {
		decimals = 18
	}
	return d.Shift(-int32(decimals)).InexactFloat64(), nil
}
