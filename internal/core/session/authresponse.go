package session

import (
	"encoding/json"
	"fmt"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// AuthResponse is the token+user pair produced by login, registration and
// federated sign-in. Upstream services emit it either flat or nested under
// a "data" key; DecodeAuthResponse accepts both.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type authEnvelope struct {
	AuthResponse
	Data *AuthResponse `json:"data"`
}

// DecodeAuthResponse parses an authentication response body, normalizing
// the flat and data-wrapped shapes. It fails when neither shape yields both
// a token and a user: the pair is persisted atomically, so a partial
// response is treated as no response.
func DecodeAuthResponse(body []byte) (*AuthResponse, error) {
	var env authEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	resp := env.AuthResponse
	if env.Data != nil {
		if resp.Token == "" {
			resp.Token = env.Data.Token
		}
		if resp.User == nil {
			resp.User = env.Data.User
		}
	}

	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("auth response missing token or user")
	}
	return &resp, nil
}
