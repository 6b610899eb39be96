package sofar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sofarbridge/sofarbridge/pkg/log"
	"github.com/sofarbridge/sofarbridge/pkg/schema"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

const (
	loginPath         = "user/auth/he/login"
	stationListPath   = "device/stationInfo/selectStationListPages"
	stationDetailPath = "device/stationInfo/selectStationDetail"

	// loginExpireSeconds is sent with every login; the token is still only
	// used for the duration of one run and never cached.
	loginExpireSeconds = 2592000
	stationPageSize    = 10
	defaultTimeout     = 5 * time.Second

	// The vendor API rejects requests that don't look like its mobile app.
	loginUserAgent = "okhttp/3.14.9"
	appUserAgent   = "okhttp/4.9.2"
	appVersion     = "2.3.6"
)

var (
	// ErrAuth marks authentication failures: bad credentials or a login
	// response without an access token. No data was fetched.
	ErrAuth = errors.New("sofarcloud authentication failed")
	// ErrFetch marks station listing or detail failures. The fetch is
	// all-or-nothing: any of these aborts the run with no records.
	ErrFetch = errors.New("sofarcloud fetch failed")
)

// Client talks to the SofarCloud vendor API. One FetchAll performs a fresh
// login, lists the account's stations and retrieves each station's real-time
// dataset, strictly sequentially and in listing order.
type Client struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	token    string
	timezone string
}

// envelope is the vendor response wrapper. Success is code "0".
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginResult struct {
	AccessToken string `json:"accessToken"`
}

type stationSummary struct {
	ID   types.Value `json:"id"`
	Name string      `json:"name"`
}

type stationListResult struct {
	Rows []stationSummary `json:"rows"`
}

type stationDetailResult struct {
	StationRealTimeVo types.StationRecord `json:"stationRealTimeVo"`
}

func systemTimezone() string {
	tz := time.Local.String()
	if tz == "" || tz == "Local" {
		tz = "UTC"
	}
	return tz
}

// FetchAll authenticates and returns the real-time dataset of every station
// that reports one. Stations without real-time data are silently skipped.
func (c *Client) FetchAll(ctx context.Context) ([]types.StationRecord, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	c.token = token

	stations, err := c.listStations(ctx)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "station list loaded", slog.Int("stations", len(stations)))

	var records []types.StationRecord
	for _, s := range stations {
		stationID := schema.SanitizeID(s.ID.String())
		rec, ok, err := c.stationDetail(ctx, stationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Ctx(ctx).DebugContext(ctx, "station has no real-time data", slog.String("stationID", stationID))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	if c.username == "" {
		return "", fmt.Errorf("%w: missing username", ErrAuth)
	}
	if c.password == "" {
		return "", fmt.Errorf("%w: missing password", ErrAuth)
	}

	payload := map[string]interface{}{
		"accountName": c.username,
		"expireTime":  loginExpireSeconds,
		"password":    c.password,
	}
	req, err := c.newPostJSONRequest(ctx, loginPath, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", loginUserAgent)

	var res loginResult
	if err := c.doRequest(req, &res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "sofarcloud login failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if res.AccessToken == "" {
		log.Ctx(ctx).ErrorContext(ctx, "sofarcloud login response carried no access token")
		return "", fmt.Errorf("%w: no access token in response", ErrAuth)
	}
	log.Ctx(ctx).DebugContext(ctx, "sofarcloud login success", slog.String("username", c.username))
	return res.AccessToken, nil
}

func (c *Client) listStations(ctx context.Context) ([]stationSummary, error) {
	payload := map[string]interface{}{
		"pageNum":  1,
		"pageSize": stationPageSize,
	}
	req, err := c.newPostJSONRequest(ctx, stationListPath, payload)
	if err != nil {
		return nil, err
	}
	c.setAppHeaders(req)

	var res stationListResult
	if err := c.doRequest(req, &res); err != nil {
		return nil, fmt.Errorf("%w: station list: %v", ErrFetch, err)
	}
	if res.Rows == nil {
		return nil, fmt.Errorf("%w: station list response missing rows", ErrFetch)
	}
	return res.Rows, nil
}

func (c *Client) stationDetail(ctx context.Context, stationID string) (types.StationRecord, bool, error) {
	params := url.Values{}
	params.Set("stationId", stationID)
	req, err := c.newPostJSONRequest(ctx, stationDetailPath+"?"+params.Encode(), map[string]interface{}{})
	if err != nil {
		return nil, false, err
	}
	c.setAppHeaders(req)

	var res stationDetailResult
	if err := c.doRequest(req, &res); err != nil {
		return nil, false, fmt.Errorf("%w: station detail %s: %v", ErrFetch, stationID, err)
	}
	if res.StationRealTimeVo == nil {
		return nil, false, nil
	}
	return res.StationRealTimeVo, true, nil
}

func (c *Client) newPostJSONRequest(ctx context.Context, endpoint string, data interface{}) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	u = u.ResolveReference(ref)

	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// setAppHeaders applies the header set the vendor's mobile app sends on every
// authenticated call.
func (c *Client) setAppHeaders(req *http.Request) {
	req.Header.Set("authorization", c.token)
	req.Header.Set("app-version", appVersion)
	req.Header.Set("custom-origin", "sofar")
	req.Header.Set("custom-device-type", "1")
	req.Header.Set("request-from", "app")
	req.Header.Set("scene", "eu")
	req.Header.Set("bundlefrom", "2")
	req.Header.Set("appfrom", "6")
	req.Header.Set("timezone", c.timezone)
	req.Header.Set("accept-language", "en")
	req.Header.Set("User-Agent", appUserAgent)
}

func (c *Client) doRequest(req *http.Request, dest interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Ctx(req.Context()).ErrorContext(req.Context(), "failed to decode sofarcloud response",
			slog.Any("error", err), slog.String("body", string(body)))
		return err
	}
	if env.Code != "0" {
		if env.Message == "" {
			return fmt.Errorf("sofarcloud api error: code %s", env.Code)
		}
		return fmt.Errorf("sofarcloud api error: code %s: %s", env.Code, env.Message)
	}

	if dest != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("failed to decode sofarcloud result: %w", err)
		}
	}
	return nil
}
