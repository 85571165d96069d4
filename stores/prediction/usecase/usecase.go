package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/jsonextract"
	"github.com/nftprophet/goapi/base/log"
	"github.com/nftprophet/goapi/base/ptr"
	"github.com/nftprophet/goapi/base/random"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/asset"
	"github.com/nftprophet/goapi/domain/prediction"
	"github.com/nftprophet/goapi/service/gemini"
)

const fallbackMonths = 5

// generation parameters are fixed, not user configurable
var generationConfig = gemini.GenerationConfig{
	Temperature:     ptr.Float64(0.7),
	TopP:            ptr.Float64(0.95),
	TopK:            ptr.Int(40),
	MaxOutputTokens: ptr.Int(2048),
}

type impl struct {
	gemini gemini.Client
	rnd    random.Source
}

func New(geminiClient gemini.Client, rnd random.Source) prediction.Usecase {
	return &impl{
		gemini: geminiClient,
		rnd:    rnd,
	}
}

type predictionsEnvelope struct {
	Predictions []asset.PricePoint `json:"predictions"`
}

// GeneratePricePredictions asks the model for a price forecast and falls
// back to a synthetic one when the model answer cannot be used. Only
// transport and auth errors escape, a decode failure never does.
func (im *impl) GeneratePricePredictions(c ctx.Ctx, req *asset.PredictionRequest) ([]asset.PricePoint, error) {
	prompt := buildPredictionPrompt(req)

	text, err := im.gemini.GenerateText(c, prompt, &generationConfig)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			c.WithField("err", err).Warn("empty model answer, using fallback predictions")
			return im.fallbackPredictions(req.CurrentPrice), nil
		}
		return nil, err
	}

	points, err := decodePredictions(text)
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"text": truncate(text, 256),
		}).Warn("unusable model answer, using fallback predictions")
		return im.fallbackPredictions(req.CurrentPrice), nil
	}
	return points, nil
}

// decodePredictions tries a strict decode of the whole answer first, then a
// decode of the first balanced object inside it
func decodePredictions(text string) ([]asset.PricePoint, error) {
	envelope := predictionsEnvelope{}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		extracted, err := jsonextract.FirstObject(text)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(extracted), &envelope); err != nil {
			return nil, domain.ErrDecode
		}
	}

	if len(envelope.Predictions) == 0 {
		return nil, domain.ErrDecode
	}

	points := envelope.Predictions
	for i := range points {
		points[i].Confidence = asset.ClampConfidence(points[i].Confidence)
		if points[i].Price < 0 {
			points[i].Price = 0
		}
	}
	return points, nil
}

// fallbackPredictions synthesizes five monthly points from the current
// price. Per month offset i: a volatility term in [-15%, +15%], a +5%/month
// trend with 50% probability else -3%/month, price floored at half the
// current price, confidence max(0.6, 0.9-0.05i). This path never fails.
func (im *impl) fallbackPredictions(currentPrice float64) []asset.PricePoint {
	now := time.Now()
	points := make([]asset.PricePoint, 0, fallbackMonths)
	for i := 1; i <= fallbackMonths; i++ {
		volatility := (im.rnd.Float64() - 0.5) * 0.3
		trend := -0.03
		if im.rnd.Float64() < 0.5 {
			trend = 0.05
		}

		price := currentPrice * (1 + trend*float64(i) + volatility)
		if floor := currentPrice * 0.5; price < floor {
			price = floor
		}

		confidence := 0.9 - 0.05*float64(i)
		if confidence < 0.6 {
			confidence = 0.6
		}

		points = append(points, asset.PricePoint{
			Date:       now.AddDate(0, i, 0).Format("2006-01-02"),
			Price:      price,
			Confidence: confidence,
			Factors:    []string{"Historical volatility", "Collection floor trend"},
		})
	}
	return points
}

const imageAnalysisPrompt = `Analyze this NFT image and identify it. Respond with a JSON object only:
{"name": "<most likely NFT or collection name>", "traits": ["<visual trait>", ...], "description": "<one sentence description>"}`

// AnalyzeImage identifies an uploaded image via the vision endpoint. Decode
// failures produce the canonical fallback record, transport and auth errors
// propagate.
func (im *impl) AnalyzeImage(c ctx.Ctx, base64Image string) (*prediction.ImageAnalysis, error) {
	text, err := im.gemini.GenerateVision(c, imageAnalysisPrompt, "image/png", base64Image)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			return fallbackImageAnalysis(), nil
		}
		return nil, err
	}

	analysis, err := decodeImageAnalysis(text)
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"text": truncate(text, 256),
		}).Warn("unusable vision answer, using fallback identification")
		return fallbackImageAnalysis(), nil
	}
	return analysis, nil
}

func decodeImageAnalysis(text string) (*prediction.ImageAnalysis, error) {
	analysis := prediction.ImageAnalysis{}
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		extracted, err := jsonextract.FirstObject(text)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(extracted), &analysis); err != nil {
			return nil, domain.ErrDecode
		}
	}

	if strings.TrimSpace(analysis.Name) == "" {
		return nil, domain.ErrDecode
	}
	return &analysis, nil
}

// fallbackImageAnalysis is the single canonical fallback for every failed
// identification
func fallbackImageAnalysis() *prediction.ImageAnalysis {
	return &prediction.ImageAnalysis{
		Name:        "Unknown NFT",
		Traits:      []string{"Digital Art", "Collectible"},
		Description: "NFT analysis from uploaded image",
	}
}

func buildPredictionPrompt(req *asset.PredictionRequest) string {
	history, _ := json.Marshal(req.HistoricalPrices)
	stats, _ := json.Marshal(req.CollectionStats)
	traits, _ := json.Marshal(req.Traits)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an NFT market analyst. Forecast monthly prices for the next 5 months.\n\n")
	fmt.Fprintf(&b, "NFT: %s\n", req.NftName)
	fmt.Fprintf(&b, "Current price (ETH): %.6f\n", req.CurrentPrice)
	fmt.Fprintf(&b, "Historical prices: %s\n", history)
	fmt.Fprintf(&b, "Collection stats: %s\n", stats)
	fmt.Fprintf(&b, "Traits: %s\n\n", traits)
	b.WriteString(`Respond with a JSON object only, no prose:
{"predictions": [{"date": "YYYY-MM-DD", "price": <number>, "confidence": <0..1>, "factors": ["<factor>", ...]}]}`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
