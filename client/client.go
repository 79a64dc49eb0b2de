package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/nesafe/yatri"
)

const defaultTimeout = 3 * time.Second

// Client is the SDK used by checkpoint and accommodation integrations to
// verify scanned credentials against a registry server. Positive results
// are cached; negative results are always re-checked so a freshly issued
// id becomes visible immediately.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	baseURL   string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: "yatri-client",
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// Verify checks touristID against the registry. Negative results carry
// Valid=false and a reason; the error return means the check itself could
// not be performed.
func (c *Client) Verify(ctx context.Context, touristID string) (yatri.VerificationResult, error) {
	if !yatri.IsTouristID(touristID) {
		return yatri.VerificationResult{Valid: false, Reason: yatri.ReasonNotFound}, nil
	}

	cacheKey := "verify:" + touristID
	if x, found := c.cache.Get(cacheKey); found {
		return x.(yatri.VerificationResult), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/verify/"+touristID, nil)
	if err != nil {
		return yatri.VerificationResult{}, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return yatri.VerificationResult{}, errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return yatri.VerificationResult{}, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result yatri.VerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return yatri.VerificationResult{}, errors.Wrap(err, "failed to decode response")
	}

	if result.Valid {
		c.cache.Set(cacheKey, result, cache.DefaultExpiration)
	}

	return result, nil
}

// Credential fetches the re-encoded QR for an issued identity.
func (c *Client) Credential(ctx context.Context, touristID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/credential/"+touristID, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body struct {
		TouristID string `json:"touristId"`
		QRCode    string `json:"qrCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}

	return body.QRCode, nil
}
