package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// GoogleExchanger implements ports.IdentityProvider against the identity
// backend's credential-exchange endpoint. mode selects login vs register;
// the response body is returned raw because its shape (flat or
// data-wrapped) is decided upstream.
type GoogleExchanger struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
}

func NewGoogleExchanger(baseURL string) *GoogleExchanger {
	return &GoogleExchanger{
		client:  &fasthttp.Client{},
		baseURL: baseURL,
		timeout: 10 * time.Second,
	}
}

func (g *GoogleExchanger) ExchangeCredential(ctx context.Context, credential, mode string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.baseURL + "/user/google")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyString(fmt.Sprintf(`{"credential":%q,"mode":%q}`, credential, mode))

	if err := g.client.DoTimeout(req, resp, g.timeout); err != nil {
		return nil, fmt.Errorf("identity exchange: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("identity exchange: status %d", resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
