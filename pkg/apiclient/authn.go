package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// API names accepted by the token exchange endpoint.
const (
	APIDataManagement   = "data-management-api"
	APISiteCapabilities = "site-capabilities-api"
)

// deviceFlowTimeout bounds how long PollForToken waits for the user to
// approve the device in their browser.
const deviceFlowTimeout = 5 * time.Minute

// DeviceAuthorization is the response to a device-flow initiation.
type DeviceAuthorization struct {
	// DeviceCode is the opaque code used when polling for the token.
	DeviceCode string `json:"device_code"`

	// UserCode is the short code the user enters in their browser.
	UserCode string `json:"user_code"`

	// VerificationURI is the page the user opens to approve the device.
	VerificationURI string `json:"verification_uri"`

	// ExpiresIn is how long the codes stay valid, in seconds.
	ExpiresIn int `json:"expires_in"`

	// Interval is the minimum polling interval, in seconds.
	Interval int `json:"interval"`
}

// VerificationURL returns the URL the user should open, with the user
// code already filled in.
func (d *DeviceAuthorization) VerificationURL() string {
	return fmt.Sprintf("%s?user_code=%s", d.VerificationURI, url.QueryEscape(d.UserCode))
}

// PollInterval returns the server-requested polling interval, defaulting
// to 5 seconds when the server does not specify one.
func (d *DeviceAuthorization) PollInterval() time.Duration {
	if d.Interval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.Interval) * time.Second
}

// deviceTokenResponse is the successful polling response. The service
// nests the token under a "token" key.
type deviceTokenResponse struct {
	Token struct {
		AccessToken string `json:"access_token"`
	} `json:"token"`
}

// exchangeTokenResponse is the token exchange response. Some deployments
// return "access_token", others "token".
type exchangeTokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

func (r *exchangeTokenResponse) token() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// StartDeviceFlow initiates the OAuth2 device code flow.
func (c *Client) StartDeviceFlow(ctx context.Context) (*DeviceAuthorization, error) {
	var auth DeviceAuthorization
	if err := c.get(ctx, "/login/device", nil, &auth); err != nil {
		return nil, fmt.Errorf("failed to initiate device code flow: %w", err)
	}
	if auth.DeviceCode == "" {
		return nil, fmt.Errorf("device flow response carried no device code")
	}
	return &auth, nil
}

// PollForToken polls the authentication service until the user approves
// the device, the codes expire, the user denies authorization, or the
// five-minute deadline passes. interval is the server-requested polling
// interval; a slow_down response stretches it by five seconds.
func (c *Client) PollForToken(ctx context.Context, deviceCode string, interval time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, deviceFlowTimeout)
	defer cancel()

	query := url.Values{"device_code": {deviceCode}}

	for {
		var resp deviceTokenResponse
		err := c.get(ctx, "/token", query, &resp)
		if err == nil {
			if resp.Token.AccessToken == "" {
				return "", fmt.Errorf("no access token in device flow response")
			}
			return resp.Token.AccessToken, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			if ctx.Err() != nil {
				return "", fmt.Errorf("authorization timed out, please try again")
			}
			return "", fmt.Errorf("failed to poll for authorization: %w", err)
		}

		code, description := apiErr.OAuthError()
		switch code {
		case "authorization_pending":
			// Keep waiting
		case "slow_down":
			interval += 5 * time.Second
		case "expired_token":
			return "", fmt.Errorf("device code expired, please try again")
		case "access_denied":
			return "", fmt.Errorf("user denied authorization")
		default:
			if description != "" {
				return "", fmt.Errorf("authorization error: %s - %s", code, description)
			}
			return "", fmt.Errorf("authorization error: %w", apiErr)
		}

		if err := c.sleep(ctx, interval); err != nil {
			return "", fmt.Errorf("authorization timed out, please try again")
		}
	}
}

// ExchangeToken exchanges the authentication token for a token scoped to
// the named API (APIDataManagement or APISiteCapabilities).
func (c *Client) ExchangeToken(ctx context.Context, apiName, authToken string) (string, error) {
	query := url.Values{
		"version":       {"latest"},
		"try_use_cache": {"false"},
		"access_token":  {authToken},
	}

	var resp exchangeTokenResponse
	if err := c.get(ctx, "/token/exchange/"+url.PathEscape(apiName), query, &resp); err != nil {
		return "", fmt.Errorf("failed to exchange token for %s: %w", apiName, err)
	}

	token := resp.token()
	if token == "" {
		return "", fmt.Errorf("no access token in exchange response for %s", apiName)
	}
	return token, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
