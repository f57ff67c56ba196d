package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrGatewayFailure is returned when Paystack itself reports a failed
// initialization (status:false in the response body).
var ErrGatewayFailure = errors.New("paystack rejected the transaction")

type Client struct {
	SecretKey string
	BaseURL   string
	HTTP      *http.Client
	Log       *logrus.Logger
}

// InitializeRequest opens a hosted checkout session. Amount is in minor
// currency units (kobo/cents).
type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	CallbackURL string   `json:"callback_url"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if c.SecretKey == "" {
		return nil, errors.New("missing paystack secret key")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/transaction/initialize", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer res.Body.Close()

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message,omitempty"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("paystack response decode failed: %w", err)
	}

	if !resp.Status {
		if c.Log != nil {
			c.Log.WithField("message", resp.Message).Warn("paystack initialization rejected")
		}
		return nil, fmt.Errorf("%w: %s", ErrGatewayFailure, resp.Message)
	}
	if resp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization url", ErrGatewayFailure)
	}

	return &InitializeResponse{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
	}, nil
}
