package scim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const mediaType = "application/scim+json"

// Config describes one SCIM resource collection and how to reach it.
type Config struct {
	// BaseURL is <protocol>://<host>[/prefix], e.g. https://example.com/scim/v2
	BaseURL string

	// Endpoint is the collection path, e.g. /Users
	Endpoint string

	CertFile string
	KeyFile  string
	CAFile   string

	// PinnedPublicKeys are base64 sha256 digests, see ParsePins
	PinnedPublicKeys []string
}

// Client performs create, replace and delete requests against a SCIM
// resource collection. It holds the TLS session state for one run.
type Client struct {
	httpClient    *http.Client
	collectionURL string
}

func NewClient(cfg Config) (*Client, error) {
	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return NewClientWithHTTP(cfg, &http.Client{Transport: transport})
}

// NewClientWithHTTP uses the supplied http.Client as is.
func NewClientWithHTTP(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid SCIM base URL %q", cfg.BaseURL)
	}

	collection := strings.TrimRight(cfg.BaseURL, "/")
	if endpoint := strings.Trim(cfg.Endpoint, "/"); endpoint != "" {
		collection += "/" + endpoint
	}
	return &Client{
		httpClient:    httpClient,
		collectionURL: collection,
	}, nil
}

func (c *Client) CollectionURL() string {
	return c.collectionURL
}

func (c *Client) resourceURL(remoteID string) (string, error) {
	if remoteID == "" {
		return "", ErrEmptyResourceID
	}
	return c.collectionURL + "/" + url.PathEscape(remoteID), nil
}

// Create POSTs a resource and returns the id the server assigned to it.
func (c *Client) Create(ctx context.Context, document string) (string, error) {
	body, err := c.send(ctx, http.MethodPost, c.collectionURL, document, http.StatusCreated)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, "id")
	if !id.Exists() || id.String() == "" {
		return "", ErrNoRemoteID
	}
	return id.String(), nil
}

// Update replaces the resource with a PUT.
func (c *Client) Update(ctx context.Context, remoteID, document string) error {
	target, err := c.resourceURL(remoteID)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPut, target, document, http.StatusOK)
	return err
}

func (c *Client) Delete(ctx context.Context, remoteID string) error {
	target, err := c.resourceURL(remoteID)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodDelete, target, "", http.StatusNoContent)
	return err
}

func (c *Client) send(ctx context.Context, method, target, document string, want int) ([]byte, error) {
	var reqBody io.Reader
	if document != "" {
		reqBody = strings.NewReader(document)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Accept", mediaType)
		req.Header.Set("Content-Type", mediaType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, target, err)
	}

	log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Msg("scim response")

	if resp.StatusCode != want {
		return nil, newStatusError(method, target, resp.StatusCode, want, body)
	}
	return body, nil
}
