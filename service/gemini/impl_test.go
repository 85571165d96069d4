package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bCtx "github.com/nftprophet/goapi/base/ctx"
	"github.com/nftprophet/goapi/base/ptr"
	"github.com/nftprophet/goapi/domain"
)

func newTestClient(handler http.Handler) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(&ClientCfg{
		HttpClient:  http.Client{},
		Timeout:     5 * time.Second,
		Apikey:      "api_key",
		BaseUrl:     srv.URL,
		Model:       "gemini-pro",
		VisionModel: "gemini-pro-vision",
	})
	return c, srv
}

func Test_GenerateText(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/models/gemini-pro:generateContent", r.URL.Path)
		req.Equal("api_key", r.URL.Query().Get("key"))

		body, _ := ioutil.ReadAll(r.Body)
		in := GenerateContentReq{}
		req.NoError(json.Unmarshal(body, &in))
		req.Len(in.Contents, 1)
		req.Equal("predict the price", in.Contents[0].Parts[0].Text)
		req.InDelta(0.7, *in.GenerationConfig.Temperature, 1e-9)
		req.Equal(40, *in.GenerationConfig.TopK)

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"model says hi"}]}}]}`)
	}))
	defer srv.Close()

	out, err := c.GenerateText(ctx, "predict the price", &GenerationConfig{
		Temperature:     ptr.Float64(0.7),
		TopP:            ptr.Float64(0.95),
		TopK:            ptr.Int(40),
		MaxOutputTokens: ptr.Int(2048),
	})
	req.NoError(err)
	req.Equal("model says hi", out)
}

func Test_GenerateVision(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/models/gemini-pro-vision:generateContent", r.URL.Path)

		body, _ := ioutil.ReadAll(r.Body)
		in := GenerateContentReq{}
		req.NoError(json.Unmarshal(body, &in))
		parts := in.Contents[0].Parts
		req.Len(parts, 2)
		req.Equal("identify this nft", parts[0].Text)
		req.NotNil(parts[1].InlineData)
		req.Equal("image/png", parts[1].InlineData.MimeType)
		req.Equal("aW1hZ2U=", parts[1].InlineData.Data)

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"an ape"}]}}]}`)
	}))
	defer srv.Close()

	out, err := c.GenerateVision(ctx, "identify this nft", "image/png", "aW1hZ2U=")
	req.NoError(err)
	req.Equal("an ape", out)
}

func Test_Generate_NoCandidates(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := c.GenerateText(ctx, "p", nil)
	req.True(errors.Is(err, domain.ErrDecode))
}

func Test_Generate_StatusMapping(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	status := http.StatusTooManyRequests
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	_, err := c.GenerateText(ctx, "p", nil)
	req.True(errors.Is(err, domain.ErrRateLimited))

	status = http.StatusUnauthorized
	_, err = c.GenerateText(ctx, "p", nil)
	req.True(errors.Is(err, domain.ErrUnauthorized))

	status = http.StatusBadRequest
	_, err = c.GenerateText(ctx, "p", nil)
	req.True(errors.Is(err, domain.ErrUpstream))
}
