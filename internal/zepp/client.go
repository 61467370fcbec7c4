package zepp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Zepp (Mi Fit/Huami) web API endpoint.
const DefaultBaseURL = "https://api-mifit.huami.com"

// Request headers the upstream API requires on every call.
const (
	headerToken    = "apptoken"
	headerPlatform = "appPlatform"
	headerAppName  = "appname"

	appPlatform = "web"
	appName     = "com.xiaomi.hm.health"
)

// Client fetches workout data from the Zepp web API using a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetHistory retrieves the workout summary list.
func (c *Client) GetHistory(ctx context.Context) ([]WorkoutSummary, error) {
	var resp historyResponse
	if err := c.getJSON(ctx, "/v1/sport/run/history.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching workout history: %w", err)
	}
	return resp.Data.Summary, nil
}

// GetDetail retrieves the raw series strings for one workout.
func (c *Client) GetDetail(ctx context.Context, trackID, source string) (*WorkoutDetail, error) {
	params := url.Values{
		"trackid": {trackID},
		"source":  {source},
	}
	var resp detailResponse
	if err := c.getJSON(ctx, "/v1/sport/run/detail.json", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching detail for track %s: %w", trackID, err)
	}
	return &resp.Data, nil
}

// getJSON performs an authenticated GET and decodes the JSON response into
// target. Retries up to 3 times with exponential backoff on transport errors
// and 5xx responses.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, target any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set(headerToken, c.token)
		req.Header.Set(headerPlatform, appPlatform)
		req.Header.Set(headerAppName, appName)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			// Client errors (bad token, unknown track) won't improve on retry.
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
		}

		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("after 3 attempts: %w", lastErr)
}
