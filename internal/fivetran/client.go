package fivetran

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivetran/hybrid-agent-deploy/internal/logging"
)

// DefaultBaseURL is the production Fivetran API endpoint.
const DefaultBaseURL = "https://api.fivetran.com"

const registrationPath = "/v1/hybrid-deployment-agents"

// Client is a Fivetran API client for hybrid agent registration.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates a new Fivetran client authenticating with the given
// key/secret pair. baseURL is usually DefaultBaseURL.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// RegistrationError indicates the registration call returned a non-success
// HTTP status. The call is never retried; re-running the tool is the
// recovery path.
type RegistrationError struct {
	StatusCode int
	Body       string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("agent registration failed (status %d): %s", e.StatusCode, e.Body)
}

// TokenExtractionError indicates the registration call succeeded but the
// response carried no token, which makes the deploy step meaningless.
type TokenExtractionError struct {
	Body string
}

func (e *TokenExtractionError) Error() string {
	return fmt.Sprintf("registration response contained no agent token: %s", e.Body)
}

type registrationRequest struct {
	AcceptTerms bool   `json:"accept_terms"`
	DisplayName string `json:"display_name"`
	EnvType     string `json:"env_type"`
	AuthType    string `json:"auth_type"`
	GroupID     string `json:"group_id"`
}

type registrationResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// RegisterAgent registers a hybrid deployment agent and returns its
// short-lived token. Exactly one call is made per deploy run.
func (c *Client) RegisterAgent(ctx context.Context, displayName, groupID string) (string, error) {
	reqBody := registrationRequest{
		AcceptTerms: true,
		DisplayName: displayName,
		EnvType:     "AWS",
		AuthType:    "AUTO",
		GroupID:     groupID,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode registration request: %w", err)
	}

	url := c.baseURL + registrationPath
	logging.Debug("registering agent %q against %s", displayName, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Fivetran API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read registration response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &RegistrationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed registrationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &TokenExtractionError{Body: string(respBody)}
	}
	if parsed.Data.Token == "" {
		return "", &TokenExtractionError{Body: string(respBody)}
	}

	return parsed.Data.Token, nil
}
