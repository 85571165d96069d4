package usecase

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/viney-shih/goroutines"

	"github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/domain"
	"github.com/nftprophet/goapi/domain/analysis"
	"github.com/nftprophet/goapi/domain/asset"
	"github.com/nftprophet/goapi/domain/prediction"
	"github.com/nftprophet/goapi/service/marketplace"
)

const searchLimit = 20

const (
	msgNotFoundByName  = "NFT not found. Please check the name and try again."
	msgNotFoundByImage = "Could not identify the NFT from the image. Try searching by name instead."
	msgNotFoundByToken = "NFT not found for this contract and token id."
	msgNotAnImage      = "The uploaded file is not an image."
	msgBadURL          = "Could not parse the marketplace URL."
	msgBadInput        = "Invalid contract address or token id."
	msgRateLimited     = "Too many requests right now. Please try again in a moment."
	msgUnauthorized    = "The data provider rejected our credentials."
	msgUpstreamDown    = "The data provider is unavailable. Please try again later."
	msgGeneric         = "Something went wrong. Please try again."
)

type impl struct {
	marketplace marketplace.Client
	prediction  prediction.Usecase
}

func New(marketplaceClient marketplace.Client, predictionUsecase prediction.Usecase) analysis.Usecase {
	return &impl{
		marketplace: marketplaceClient,
		prediction:  predictionUsecase,
	}
}

func (im *impl) AnalyzeByName(c ctx.Ctx, query string) (*analysis.Result, error) {
	assets := im.marketplace.SearchAssets(c, query, searchLimit)
	if len(assets) == 0 {
		return nil, &userFacingError{msg: msgNotFoundByName, cause: domain.ErrNotFound}
	}

	// the first result is the canonical match, no ranking or disambiguation
	// is performed
	return im.analyze(c, assets[0])
}

func (im *impl) AnalyzeByImage(c ctx.Ctx, image []byte) (*analysis.Result, error) {
	mtype := mimetype.Detect(image)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, &userFacingError{msg: msgNotAnImage, cause: domain.ErrInvalidInput}
	}

	encoded := base64.StdEncoding.EncodeToString(image)
	identified, err := im.prediction.AnalyzeImage(c, encoded)
	if err != nil {
		c.WithField("err", err).Error("prediction.AnalyzeImage failed")
		return nil, reduce(err)
	}

	res, err := im.AnalyzeByName(c, identified.Name)
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		return nil, &userFacingError{msg: msgNotFoundByImage, cause: domain.ErrNotFound}
	}
	return res, err
}

func (im *impl) AnalyzeByContract(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*analysis.Result, error) {
	a, err := im.marketplace.GetAssetByContractAndToken(c, contract, tokenId)
	if err != nil {
		c.WithField("err", err).Error("marketplace.GetAssetByContractAndToken failed")
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &userFacingError{msg: msgNotFoundByToken, cause: domain.ErrNotFound}
		}
		return nil, reduce(err)
	}
	return im.analyze(c, a)
}

func (im *impl) AnalyzeByURL(c ctx.Ctx, url string) (*analysis.Result, error) {
	contract, tokenId, err := marketplace.ParseAssetURL(url)
	if err != nil {
		return nil, &userFacingError{msg: msgBadURL, cause: domain.ErrInvalidInput}
	}
	return im.AnalyzeByContract(c, contract, tokenId)
}

// analyze fetches enrichment data, asks for predictions and assembles the
// final result. Enrichment lookups run concurrently, both degrade to empty
// defaults on their own.
func (im *impl) analyze(c ctx.Ctx, a *asset.Asset) (*analysis.Result, error) {
	var history []asset.PricePoint
	var stats *asset.CollectionStats

	b := goroutines.NewBatch(2, goroutines.WithBatchSize(2))
	defer b.Close()
	b.Queue(func() (interface{}, error) {
		history = im.marketplace.GetAssetPriceHistory(c, a.ContractAddress)
		return nil, nil
	})
	b.Queue(func() (interface{}, error) {
		stats = im.marketplace.GetCollectionStats(c, a.CollectionSlug)
		return nil, nil
	})
	b.QueueComplete()
	for range b.Results() {
	}

	req := &asset.PredictionRequest{
		NftName:          a.Name,
		CurrentPrice:     a.CurrentPrice,
		HistoricalPrices: history,
		CollectionStats:  *stats,
		Traits:           a.Traits,
	}

	points, err := im.prediction.GeneratePricePredictions(c, req)
	if err != nil {
		c.WithField("err", err).Error("prediction.GeneratePricePredictions failed")
		return nil, reduce(err)
	}

	return &analysis.Result{
		Id:           uuid.NewString(),
		Name:         a.Name,
		Collection:   a.CollectionName,
		CurrentPrice: a.CurrentPrice,
		ImageUrl:     a.ImageUrl,
		Predictions:  points,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// userFacingError is what every failed analysis resolves to, one sentence
// and the taxonomy error behind it
type userFacingError struct {
	msg   string
	cause error
}

func (e *userFacingError) Error() string {
	return e.msg
}

func (e *userFacingError) Unwrap() error {
	return e.cause
}

// reduce maps any pipeline error onto a single user-facing sentence while
// keeping the taxonomy reachable for errors.Is
func reduce(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return &userFacingError{msg: msgBadInput, cause: err}
	case errors.Is(err, domain.ErrRateLimited):
		return &userFacingError{msg: msgRateLimited, cause: err}
	case errors.Is(err, domain.ErrUnauthorized):
		return &userFacingError{msg: msgUnauthorized, cause: err}
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrUpstream):
		return &userFacingError{msg: msgUpstreamDown, cause: err}
	default:
		return &userFacingError{msg: msgGeneric, cause: err}
	}
}
