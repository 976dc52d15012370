package concepts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

const (
	DefaultURL      = "http://data.bioontology.org/annotator"
	DefaultFormat   = "json"
	DefaultOntology = "DOID"
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 3

	maxResponseSize = 8 << 20
)

// ClientConfig configures the BioPortal annotator client.
type ClientConfig struct {
	URL        string
	APIKey     string
	Format     string
	Ontologies string
	// Timeout bounds each attempt of each call.
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
}

// DefaultClientConfig returns the public BioPortal endpoint settings without an API key.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:        DefaultURL,
		Format:     DefaultFormat,
		Ontologies: DefaultOntology,
		Timeout:    DefaultTimeout,
		Attempts:   DefaultAttempts,
		Delay:      500 * time.Millisecond,
	}
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("annotator request to %s failed with status %d", e.URL, e.Code)
}

// Temporary reports whether the request may succeed on retry.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client talks to the BioPortal annotator and class endpoints.
type Client struct {
	config  ClientConfig
	http    *http.Client
	schemas *schemas
	logger  *zap.Logger
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(config ClientConfig, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if config.Attempts == 0 {
		config.Attempts = 1
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	if config.APIKey == "" {
		logger.Warn("annotator api key not set; concept resolution will fail for every section")
	}
	return &Client{config: config, http: httpClient, schemas: s, logger: logger}, nil
}

type annotateRequest struct {
	APIKey     string `json:"apikey"`
	Format     string `json:"format"`
	Ontologies string `json:"ontologies"`
	Text       string `json:"text"`
}

type annotatorItem struct {
	AnnotatedClass struct {
		ID    string `json:"@id"`
		Links struct {
			Self string `json:"self"`
		} `json:"links"`
	} `json:"annotatedClass"`
	Annotations []Annotation `json:"annotations"`
}

type classRecord struct {
	PrefLabel string   `json:"prefLabel"`
	Synonym   []string `json:"synonym"`
}

// Annotate posts text to the annotator and returns the annotated classes in response order.
func (c *Client) Annotate(ctx context.Context, text string) ([]AnnotatedClass, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	payload, err := json.Marshal(annotateRequest{
		APIKey:     c.config.APIKey,
		Format:     c.config.Format,
		Ontologies: c.config.Ontologies,
		Text:       text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotate request: %w", err)
	}

	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var items []annotatorItem
	if err := decodeValidated(c.schemas.annotator, body, &items); err != nil {
		return nil, err
	}
	out := make([]AnnotatedClass, 0, len(items))
	for _, it := range items {
		out = append(out, AnnotatedClass{
			ID:          it.AnnotatedClass.ID,
			Reference:   it.AnnotatedClass.Links.Self,
			Annotations: it.Annotations,
		})
	}
	return out, nil
}

// Lookup fetches the canonical record behind a concept reference URL.
func (c *Client) Lookup(ctx context.Context, reference string) (Concept, error) {
	if c.config.APIKey == "" {
		return Concept{}, ErrMissingAPIKey
	}
	if reference == "" {
		return Concept{}, ErrNoClassLink
	}
	u, err := url.Parse(reference)
	if err != nil {
		return Concept{}, fmt.Errorf("invalid concept reference %q: %w", reference, err)
	}
	q := u.Query()
	q.Set("apikey", c.config.APIKey)
	u.RawQuery = q.Encode()

	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return Concept{}, err
	}

	var rec classRecord
	if err := decodeValidated(c.schemas.class, body, &rec); err != nil {
		return Concept{}, err
	}
	return Concept{PreferredLabel: rec.PrefLabel, Synonyms: rec.Synonym}, nil
}

// do runs one request with retries on transport errors, 429 and 5xx.
func (c *Client) do(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()

			req, err := build(attemptCtx)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				endpoint := *req.URL
				endpoint.RawQuery = ""
				serr := &StatusError{URL: endpoint.String(), Code: resp.StatusCode}
				if serr.Temporary() {
					return serr
				}
				return retry.Unrecoverable(serr)
			}
			body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.config.Attempts),
		retry.Delay(c.config.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying annotator request", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		var serr *StatusError
		if errors.As(err, &serr) {
			return nil, serr
		}
		return nil, fmt.Errorf("annotator request failed: %w", err)
	}
	return body, nil
}
