package analysis

import (
	"time"

	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/asset"
)

// Result is the final output of one analyze operation. It is returned to
// the caller and never persisted.
type Result struct {
	Id           string             `json:"id"`
	Name         string             `json:"name"`
	Collection   string             `json:"collection"`
	CurrentPrice float64            `json:"currentPrice"`
	ImageUrl     string             `json:"imageUrl"`
	Predictions  []asset.PricePoint `json:"predictions"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// Usecase is the orchestrator's outward contract. Every error has already
// been reduced to a single user-facing message by the time it leaves here.
type Usecase interface {
	AnalyzeByName(c ctx.Ctx, query string) (*Result, error)
	AnalyzeByImage(c ctx.Ctx, image []byte) (*Result, error)
	AnalyzeByContract(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*Result, error)
	AnalyzeByURL(c ctx.Ctx, url string) (*Result, error)
}
