package gemini

import (
	"net/http"
	"time"

	bCtx "github.com/nftprophet/goapi/base/ctx"
)

// Client wraps the generateContent endpoint of a Gemini style generative
// api, for plain text and vision prompts. It returns the first candidate's
// text verbatim, interpreting the model output is the caller's problem.
type Client interface {
	GenerateText(c bCtx.Ctx, prompt string, cfg *GenerationConfig) (string, error)
	GenerateVision(c bCtx.Ctx, prompt, mimeType, base64Image string) (string, error)
}

type ClientCfg struct {
	HttpClient  http.Client
	Timeout     time.Duration
	Apikey      string
	BaseUrl     string
	Model       string
	VisionModel string
}

// GenerationConfig fields are pointers so unset sampling params are omitted
// from the request and the api falls back to its own defaults.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type GenerateContentReq struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GenerateContentResp struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
