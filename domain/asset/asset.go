package asset

import (
	"fmt"
	"strings"

	"github.com/nftprophet/goapi/domain"
)

// Trait is one attribute/value pair of an asset. Order matters, the
// marketplace returns traits in display order.
type Trait struct {
	Type  string `json:"trait_type"`
	Value string `json:"value"`
}

// Asset is the canonical view of one marketplace asset
type Asset struct {
	Id              string         `json:"id"`
	Name            string         `json:"name"`
	CollectionName  string         `json:"collectionName"`
	CollectionSlug  string         `json:"collectionSlug"`
	ContractAddress domain.Address `json:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId"`
	ImageUrl        string         `json:"imageUrl"`
	Traits          []Trait        `json:"traits"`
	Description     string         `json:"description"`
	CurrentPrice    float64        `json:"currentPrice"`
}

// DisplayName falls back to "{collection} #{tokenId}" when name is blank
func (a *Asset) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return fmt.Sprintf("%s #%s", a.CollectionName, a.TokenId)
}

// CollectionStats are aggregate market stats of a collection. A zero value
// is a legal degraded result when the upstream fetch fails.
type CollectionStats struct {
	FloorPrice  float64 `json:"floorPrice"`
	MarketCap   float64 `json:"marketCap"`
	NumOwners   int64   `json:"numOwners"`
	TotalSupply float64 `json:"totalSupply"`
	TotalVolume float64 `json:"totalVolume"`
	TotalSales  float64 `json:"totalSales"`
}

// PricePoint is one historical or predicted price observation.
// Confidence is only meaningful on predicted points.
type PricePoint struct {
	Date       string   `json:"date"`
	Price      float64  `json:"price"`
	Confidence float64  `json:"confidence,omitempty"`
	Factors    []string `json:"factors,omitempty"`
}

// PredictionRequest is the input bundle handed to the prediction service
type PredictionRequest struct {
	NftName          string
	CurrentPrice     float64
	HistoricalPrices []PricePoint
	CollectionStats  CollectionStats
	Traits           []Trait
}

// ClampConfidence clamps confidence into [0, 1], out of range values are
// clamped rather than rejected
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
