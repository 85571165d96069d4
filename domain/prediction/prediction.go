package prediction

import (
	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/domain/asset"
)

// ImageAnalysis is the identification result of an uploaded image
type ImageAnalysis struct {
	Name        string   `json:"name"`
	Traits      []string `json:"traits"`
	Description string   `json:"description"`
}

// Usecase produces price predictions and image identifications. Both
// operations are total over well-formed input: decode failures are absorbed
// by deterministic fallbacks, only transport and auth errors propagate.
type Usecase interface {
	GeneratePricePredictions(c ctx.Ctx, req *asset.PredictionRequest) ([]asset.PricePoint, error)
	AnalyzeImage(c ctx.Ctx, base64Image string) (*ImageAnalysis, error)
}
