// Package auth implements the Microsoft device-code sign-in chain for
// Minecraft: OAuth device flow, Xbox Live, XSTS, and the Minecraft services
// token exchange, ending in a playable account record.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// clientID identifies this launcher to the Microsoft identity platform.
const clientID = "fe165602-5410-4441-92f7-326e10a7cb82"

// scope requests Xbox sign-in plus a refresh token.
const scope = "XboxLive.Signin offline_access openid profile email"

// Endpoints names every remote endpoint the chain talks to. Tests point these
// at a local server.
type Endpoints struct {
	DeviceCode     string
	Token          string
	XboxUser       string
	XSTS           string
	MinecraftLogin string
	Profile        string
	Entitlements   string
}

// DefaultEndpoints returns the production endpoint set.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		DeviceCode:     "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode",
		Token:          "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
		XboxUser:       "https://user.auth.xboxlive.com/user/authenticate",
		XSTS:           "https://xsts.auth.xboxlive.com/xsts/authorize",
		MinecraftLogin: "https://api.minecraftservices.com/authentication/login_with_xbox",
		Profile:        "https://api.minecraftservices.com/minecraft/profile",
		Entitlements:   "https://api.minecraftservices.com/entitlements/mcstore",
	}
}

// Options configures a Client.
type Options struct {
	Endpoints       Endpoints      // zero value means production endpoints
	VerifyOwnership bool           // check the entitlement list after sign-in
	Logger          launcher.Logger
	Clock           launcher.Clock
}

// Client drives the credential chain. It implements launcher.Authenticator.
type Client struct {
	http            *resty.Client
	endpoints       Endpoints
	verifyOwnership bool
	logger          launcher.Logger
	clock           launcher.Clock
}

var _ launcher.Authenticator = (*Client)(nil)

// NewClient creates an auth client.
func NewClient(opts Options) *Client {
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	if opts.Logger == nil {
		opts.Logger = launcher.NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = launcher.RealClock{}
	}
	return &Client{
		http:            resty.New().SetTimeout(30 * time.Second),
		endpoints:       opts.Endpoints,
		verifyOwnership: opts.VerifyOwnership,
		logger:          opts.Logger,
		clock:           opts.Clock,
	}
}

// DeviceCode is the start of a device flow: the user enters UserCode at
// VerificationURI while the launcher polls with DeviceCode.
type DeviceCode struct {
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int64  `json:"expires_in"`
	Interval        int64  `json:"interval"` // polling interval in seconds
	Message         string `json:"message"`
}

// PendingError reports a poll attempt that did not yet produce a token.
// Non-terminal reasons mean the caller should keep polling.
type PendingError struct {
	Reason string // "authorization_pending", "slow_down", "expired_token", "access_denied"
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("device flow: %s", e.Reason)
}

// Terminal reports whether polling should stop.
func (e *PendingError) Terminal() bool {
	switch e.Reason {
	case "authorization_pending", "slow_down":
		return false
	}
	return true
}

// BeginDeviceFlow requests a device and user code pair.
func (c *Client) BeginDeviceFlow(ctx context.Context) (*DeviceCode, error) {
	var code DeviceCode
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id": clientID,
			"scope":     scope,
		}).
		SetResult(&code).
		Post(c.endpoints.DeviceCode)
	if err != nil {
		return nil, &launcher.NetworkError{URL: c.endpoints.DeviceCode, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &launcher.NetworkError{URL: c.endpoints.DeviceCode, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if code.DeviceCode == "" {
		return nil, &launcher.ProtocolError{Endpoint: c.endpoints.DeviceCode, Err: fmt.Errorf("response missing device_code")}
	}
	c.logger.Info("device flow started", "verificationURI", code.VerificationURI, "interval", code.Interval)
	return &code, nil
}

// PollOnce attempts the device-code token exchange exactly once. While the
// user has not finished signing in it returns a non-terminal PendingError;
// once the exchange succeeds it runs the rest of the chain and returns the
// signed-in account.
func (c *Client) PollOnce(ctx context.Context, deviceCode string) (*model.Account, error) {
	tok, err := c.exchangeDeviceCode(ctx, deviceCode)
	if err != nil {
		return nil, err
	}
	return c.completeChain(ctx, tok)
}

// Refresh implements launcher.Authenticator: it redeems the stored OAuth
// refresh token and re-runs the downstream chain, producing a fresh account
// record with a rotated refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.Account, error) {
	tok, err := c.redeemRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return c.completeChain(ctx, tok)
}

// oauthToken is a successful response from the Microsoft token endpoint.
type oauthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Client) exchangeDeviceCode(ctx context.Context, deviceCode string) (*oauthToken, error) {
	return c.requestToken(ctx, map[string]string{
		"grant_type":  "urn:ietf:params:oauth:grant-type:device_code",
		"client_id":   clientID,
		"device_code": deviceCode,
	})
}

func (c *Client) redeemRefreshToken(ctx context.Context, refreshToken string) (*oauthToken, error) {
	return c.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     clientID,
		"refresh_token": refreshToken,
		"scope":         scope,
	})
}

// requestToken posts to the token endpoint. Failures carrying an OAuth error
// code become PendingError so callers can distinguish "keep waiting" from
// real failure.
func (c *Client) requestToken(ctx context.Context, form map[string]string) (*oauthToken, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(c.endpoints.Token)
	if err != nil {
		return nil, &launcher.NetworkError{URL: c.endpoints.Token, Err: err}
	}

	body := resp.Body()
	if tok := gjson.GetBytes(body, "access_token"); tok.Exists() && tok.String() != "" {
		var parsed oauthToken
		parsed.AccessToken = tok.String()
		parsed.RefreshToken = gjson.GetBytes(body, "refresh_token").String()
		parsed.ExpiresIn = gjson.GetBytes(body, "expires_in").Int()
		return &parsed, nil
	}
	if oauthErr := gjson.GetBytes(body, "error"); oauthErr.Exists() {
		return nil, &PendingError{Reason: oauthErr.String()}
	}
	return nil, &launcher.ProtocolError{Endpoint: c.endpoints.Token, Err: fmt.Errorf("unrecognized token response: %s", body)}
}

// completeChain runs the Xbox Live, XSTS, and Minecraft legs, fetches the
// profile, and assembles the account.
func (c *Client) completeChain(ctx context.Context, tok *oauthToken) (*model.Account, error) {
	xblToken, uhs, err := c.xboxLiveAuth(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	xstsToken, err := c.xstsAuth(ctx, xblToken)
	if err != nil {
		return nil, err
	}

	mcToken, err := c.minecraftLogin(ctx, uhs, xstsToken)
	if err != nil {
		return nil, err
	}

	if c.verifyOwnership {
		owns, err := c.checkOwnership(ctx, mcToken)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, &launcher.ConfigurationError{Msg: "this Microsoft account does not own Minecraft"}
		}
	}

	id, name, err := c.fetchProfile(ctx, mcToken)
	if err != nil {
		return nil, err
	}
	c.logger.Info("signed in", "username", name)

	return &model.Account{
		Type:         model.AccountMicrosoft,
		Username:     name,
		UUID:         id,
		AccessToken:  mcToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    c.clock.Now().Unix() + tok.ExpiresIn,
	}, nil
}

// xboxLiveAuth trades the Microsoft access token for an XBL token and the
// user hash claim.
func (c *Client) xboxLiveAuth(ctx context.Context, msAccessToken string) (token, uhs string, err error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(map[string]any{
			"Properties": map[string]any{
				"AuthMethod": "RPS",
				"SiteName":   "user.auth.xboxlive.com",
				"RpsTicket":  "d=" + msAccessToken,
			},
			"RelyingParty": "http://auth.xboxlive.com",
			"TokenType":    "JWT",
		}).
		Post(c.endpoints.XboxUser)
	if err != nil {
		return "", "", &launcher.NetworkError{URL: c.endpoints.XboxUser, Err: err}
	}
	if !resp.IsSuccess() {
		return "", "", &launcher.NetworkError{URL: c.endpoints.XboxUser, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	body := resp.Body()
	token = gjson.GetBytes(body, "Token").String()
	uhs = gjson.GetBytes(body, "DisplayClaims.xui.0.uhs").String()
	if token == "" || uhs == "" {
		return "", "", &launcher.ProtocolError{Endpoint: c.endpoints.XboxUser, Err: fmt.Errorf("response missing Token or uhs claim")}
	}
	return token, uhs, nil
}

// xstsAuth trades the XBL token for an XSTS token scoped to the Minecraft
// services relying party.
func (c *Client) xstsAuth(ctx context.Context, xblToken string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"Properties": map[string]any{
				"SandboxId":  "RETAIL",
				"UserTokens": []string{xblToken},
			},
			"RelyingParty": "rp://api.minecraftservices.com/",
			"TokenType":    "JWT",
		}).
		Post(c.endpoints.XSTS)
	if err != nil {
		return "", &launcher.NetworkError{URL: c.endpoints.XSTS, Err: err}
	}
	if !resp.IsSuccess() {
		// 401 here carries an XErr explaining why (no Xbox profile, child
		// account, region restrictions).
		return "", &launcher.NetworkError{URL: c.endpoints.XSTS, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	token := gjson.GetBytes(resp.Body(), "Token").String()
	if token == "" {
		return "", &launcher.ProtocolError{Endpoint: c.endpoints.XSTS, Err: fmt.Errorf("response missing Token")}
	}
	return token, nil
}

// minecraftLogin trades the XSTS token for a Minecraft services access token.
func (c *Client) minecraftLogin(ctx context.Context, uhs, xstsToken string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xstsToken),
		}).
		Post(c.endpoints.MinecraftLogin)
	if err != nil {
		return "", &launcher.NetworkError{URL: c.endpoints.MinecraftLogin, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &launcher.NetworkError{URL: c.endpoints.MinecraftLogin, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	token := gjson.GetBytes(resp.Body(), "access_token").String()
	if token == "" {
		return "", &launcher.ProtocolError{Endpoint: c.endpoints.MinecraftLogin, Err: fmt.Errorf("response missing access_token")}
	}
	return token, nil
}

// fetchProfile returns the player's UUID and name.
func (c *Client) fetchProfile(ctx context.Context, mcToken string) (id, name string, err error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(mcToken).
		Get(c.endpoints.Profile)
	if err != nil {
		return "", "", &launcher.NetworkError{URL: c.endpoints.Profile, Err: err}
	}
	if !resp.IsSuccess() {
		return "", "", &launcher.NetworkError{URL: c.endpoints.Profile, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	body := resp.Body()
	id = gjson.GetBytes(body, "id").String()
	name = gjson.GetBytes(body, "name").String()
	if id == "" || name == "" {
		return "", "", &launcher.ProtocolError{Endpoint: c.endpoints.Profile, Err: fmt.Errorf("response missing id or name")}
	}
	return id, name, nil
}

// checkOwnership reports whether the entitlement list includes the game.
func (c *Client) checkOwnership(ctx context.Context, mcToken string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(mcToken).
		Get(c.endpoints.Entitlements)
	if err != nil {
		return false, &launcher.NetworkError{URL: c.endpoints.Entitlements, Err: err}
	}
	if !resp.IsSuccess() {
		return false, &launcher.NetworkError{URL: c.endpoints.Entitlements, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	for _, item := range gjson.GetBytes(resp.Body(), "items.#.name").Array() {
		if item.String() == "product_minecraft" || item.String() == "game_minecraft" {
			return true, nil
		}
	}
	return false, nil
}
