package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/log"
	"github.com/nftprophet/goapi/base/metrics"
	"github.com/nftprophet/goapi/domain"
	"golang.org/x/xerrors"
)

const v1Api = "https://generativelanguage.googleapis.com/v1beta"

func NewClient(cfg *ClientCfg) Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = v1Api
	}
	return &client{
		client:      cfg.HttpClient,
		timeout:     cfg.Timeout,
		apikey:      cfg.Apikey,
		baseUrl:     baseUrl,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		met:         metrics.New("gemini"),
	}
}

type client struct {
	client      http.Client
	timeout     time.Duration
	apikey      string
	baseUrl     string
	model       string
	visionModel string
	met         metrics.Service
}

func (c *client) GenerateText(ctx bCtx.Ctx, prompt string, cfg *GenerationConfig) (string, error) {
	body := GenerateContentReq{
		Contents:         []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	return c.generate(ctx, c.model, &body)
}

func (c *client) GenerateVision(ctx bCtx.Ctx, prompt, mimeType, base64Image string) (string, error) {
	body := GenerateContentReq{
		Contents: []Content{{Parts: []Part{
			{Text: prompt},
			{InlineData: &InlineData{MimeType: mimeType, Data: base64Image}},
		}}},
	}
	return c.generate(ctx, c.visionModel, &body)
}

func (c *client) generate(ctx bCtx.Ctx, model string, body *GenerateContentReq) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseUrl, model, c.apikey)

	data, err := c.post(ctx, url, body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"model": model,
			"err":   err,
		}).Error("c.post failed")
		return "", err
	}

	resp := GenerateContentResp{}
	if err := json.Unmarshal(data, &resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return "", xerrors.Errorf("%s: %w", err, domain.ErrDecode)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", xerrors.Errorf("no candidates: %w", domain.ErrDecode)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *client) post(ctx bCtx.Ctx, url string, body interface{}) ([]byte, error) {
	defer c.met.BumpTime("request.latency").End()

	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		ctx.WithField("err", err).Error("json.Marshal failed")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		ctx.WithField("err", err).Error("NewRequestWithContext failed")
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.met.BumpSum("request.err", 1, "kind", "network")
		ctx.WithField("err", err).Error("client.Do failed")
		return nil, xerrors.Errorf("%s: %w", err, domain.ErrNetwork)
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode, resp.Body); err != nil {
		c.met.BumpSum("request.err", 1, "kind", strconv.Itoa(resp.StatusCode))
		ctx.WithField("statusCode", resp.StatusCode).Error("resp.StatusCode != 200")
		return nil, err
	}

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithField("err", err).Error("failed to read body")
		return nil, err
	}
	return data, nil
}

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
