package marketplace

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/domain"
)

const bayc = "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d"

func newTestClient(handler http.Handler) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(&ClientCfg{
		HttpClient: http.Client{},
		Timeout:    5 * time.Second,
		Apikey:     "api_key",
		BaseUrl:    srv.URL,
	})
	return c, srv
}

func Test_SearchAssets(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("api_key", r.Header.Get("X-API-KEY"))
		req.Equal("CryptoPunks", r.URL.Query().Get("search"))
		req.Equal("20", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"assets":[{
			"id": 42,
			"name": "CryptoPunk #7804",
			"token_id": "7804",
			"image_url": "https://img/punk.png",
			"asset_contract": {"address": "`+bayc+`"},
			"collection": {"name": "CryptoPunks", "slug": "cryptopunks"},
			"traits": [{"trait_type": "Type", "value": "Alien"}, {"trait_type": "Accessory", "value": "Pipe"}],
			"last_sale": {"total_price": "45200000000000000000", "payment_token": {"decimals": 18}}
		}]}`)
	}))
	defer srv.Close()

	assets := c.SearchAssets(ctx, "CryptoPunks", 0)
	req.Len(assets, 1)
	a := assets[0]
	req.Equal("CryptoPunk #7804", a.Name)
	req.Equal("cryptopunks", a.CollectionSlug)
	req.Equal(domain.Address(bayc), a.ContractAddress)
	req.Equal(domain.TokenId("7804"), a.TokenId)
	req.Equal("https://img/punk.png", a.ImageUrl)
	req.InDelta(45.2, a.CurrentPrice, 1e-9)
	// trait order is preserved
	req.Equal("Type", a.Traits[0].Type)
	req.Equal("Alien", a.Traits[0].Value)
	req.Equal("Accessory", a.Traits[1].Type)
}

func Test_SearchAssets_UpstreamFailureIsEmptyResult(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	req.Empty(c.SearchAssets(ctx, "zzz", 5))
}

func Test_GetAssetByContractAndToken(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/asset/"+bayc+"/7804/", r.URL.Path)
		fmt.Fprint(w, `{
			"id": 7,
			"name": "",
			"token_id": "7804",
			"image_url": "",
			"image_original_url": "https://img/original.png",
			"asset_contract": {"address": "`+bayc+`"},
			"collection": {"name": "CryptoPunks", "slug": "cryptopunks"}
		}`)
	}))
	defer srv.Close()

	a, err := c.GetAssetByContractAndToken(ctx, bayc, "7804")
	req.NoError(err)
	// blank name falls back to "{collection} #{tokenId}"
	req.Equal("CryptoPunks #7804", a.Name)
	// blank primary image falls back to the original image
	req.Equal("https://img/original.png", a.ImageUrl)
}

func Test_GetAssetByContractAndToken_ValidatesBeforeNetwork(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	calls := 0
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	_, err := c.GetAssetByContractAndToken(ctx, "0x123", "7804")
	req.True(errors.Is(err, domain.ErrInvalidInput))

	_, err = c.GetAssetByContractAndToken(ctx, bayc, "  ")
	req.True(errors.Is(err, domain.ErrInvalidInput))

	req.Zero(calls)
}

func Test_GetAssetByContractAndToken_StatusMapping(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	status := http.StatusNotFound
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, "nope")
	}))
	defer srv.Close()

	_, err := c.GetAssetByContractAndToken(ctx, bayc, "1")
	req.True(errors.Is(err, domain.ErrNotFound))

	status = http.StatusTooManyRequests
	_, err = c.GetAssetByContractAndToken(ctx, bayc, "1")
	req.True(errors.Is(err, domain.ErrRateLimited))

	status = http.StatusUnauthorized
	_, err = c.GetAssetByContractAndToken(ctx, bayc, "1")
	req.True(errors.Is(err, domain.ErrUnauthorized))

	status = http.StatusServiceUnavailable
	_, err = c.GetAssetByContractAndToken(ctx, bayc, "1")
	req.True(errors.Is(err, domain.ErrUpstream))
	var ue *domain.UpstreamError
	req.True(errors.As(err, &ue))
	req.Equal(http.StatusServiceUnavailable, ue.StatusCode)
	req.Equal("nope", ue.Body)
}

func Test_GetAssetByContractAndToken_NetworkError(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	_, err := c.GetAssetByContractAndToken(ctx, bayc, "1")
	req.True(errors.Is(err, domain.ErrNetwork))
}

func Test_GetCollectionStats(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	calls := 0
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		req.Equal("/collection/cryptopunks/stats", r.URL.Path)
		fmt.Fprint(w, `{"stats":{"floor_price":44.1,"market_cap":1000,"num_owners":3500,"total_supply":10000,"total_volume":900000,"total_sales":20000}}`)
	}))
	defer srv.Close()

	stats := c.GetCollectionStats(ctx, "cryptopunks")
	req.InDelta(44.1, stats.FloorPrice, 1e-9)
	req.EqualValues(3500, stats.NumOwners)

	// second read comes from the cache
	stats = c.GetCollectionStats(ctx, "cryptopunks")
	req.InDelta(44.1, stats.FloorPrice, 1e-9)
	req.Equal(1, calls)
}

func Test_GetCollectionStats_DegradesToZero(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	stats := c.GetCollectionStats(ctx, "broken")
	req.NotNil(stats)
	req.Zero(stats.FloorPrice)
	req.Zero(stats.NumOwners)
}

func Test_GetAssetPriceHistory(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal(bayc, r.URL.Query().Get("asset_contract_address"))
		req.Equal("successful", r.URL.Query().Get("event_type"))
		fmt.Fprint(w, `{"asset_events":[
			{"total_price":"50000000000000000000","payment_token":{"decimals":18},"created_date":"2024-02-01T10:00:00.000000"},
			{"total_price":"45000000000000000000","payment_token":{"decimals":18},"created_date":"2024-01-15T08:30:00.000000"},
			{"total_price":"not-a-number","payment_token":{"decimals":18},"created_date":"2024-01-20T00:00:00.000000"}
		]}`)
	}))
	defer srv.Close()

	points := c.GetAssetPriceHistory(ctx, bayc)
	req.Len(points, 2)
	// chronological order
	req.Equal("2024-01-15", points[0].Date)
	req.InDelta(45.0, points[0].Price, 1e-9)
	req.Equal("2024-02-01", points[1].Date)
	req.InDelta(50.0, points[1].Price, 1e-9)
}

func Test_FormatAsset_ImageFallbackOrder(t *testing.T) {
	req := require.New(t)

	raw := &RawAsset{TokenId: "1"}
	raw.Collection.Name = "Test"
	raw.ImagePreviewUrl = "preview"
	req.Equal("preview", FormatAsset(raw).ImageUrl)

	raw.ImageOriginalUrl = "original"
	req.Equal("original", FormatAsset(raw).ImageUrl)

	raw.ImageUrl = "primary"
	req.Equal("primary", FormatAsset(raw).ImageUrl)
}
