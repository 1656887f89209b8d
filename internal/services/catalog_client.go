package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// CatalogOptions configures a CatalogClient.
type CatalogOptions struct {
	// BaseURL is the API root, e.g. http://localhost:1338/api.
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RetryMax  int
	RetryWait time.Duration
}

// CatalogClient talks to the catalog REST API.
type CatalogClient struct {
	client *resty.Client
	logger logger.Logger
}

type documentRef struct {
	ID         uint   `json:"id"`
	DocumentID string `json:"documentId"`
}

type listResponse struct {
	Data []documentRef `json:"data"`
}

type itemResponse struct {
	Data documentRef `json:"data"`
}

type errorResponse struct {
	Error struct {
		Status  int            `json:"status"`
		Name    string         `json:"name"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func NewCatalogClient(opts CatalogOptions, log logger.Logger) *CatalogClient {
	if log == nil {
		log = logger.New()
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryMax).
		SetRetryWaitTime(opts.RetryWait).
		SetLogger(log).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return false
			}
			code := r.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	} else {
		log.Warn("[Catalog] no API token configured, requests are sent unauthenticated")
	}
	return &CatalogClient{client: c, logger: log}
}

// Lookup queries the collection with equality filters and reads the first match.
func (c *CatalogClient) Lookup(ctx context.Context, collection models.Collection, filters ...models.Filter) (models.Existence, error) {
	var out listResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(models.Query{
			Filters:  filters,
			Fields:   []string{"documentId"},
			PageSize: 1,
		}.Values()).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/" + collection.String())
	if err != nil {
		return models.Existence{}, catalogerrors.NewTransportError("catalog lookup in "+collection.String()+" failed", err)
	}
	if resp.IsError() {
		return models.Existence{}, c.replyError(resp, collection)
	}
	if len(out.Data) == 0 || out.Data[0].DocumentID == "" {
		return models.Absent(), nil
	}
	return models.Exists(out.Data[0].DocumentID), nil
}

// CreateIfAbsent posts payload. A conflict is resolved by looking key up again, so that a
// concurrent or retried create returns the existing document instead of failing.
func (c *CatalogClient) CreateIfAbsent(ctx context.Context, collection models.Collection, key []models.Filter, payload models.Entry) (string, bool, error) {
	body, err := wirePayload(payload)
	if err != nil {
		return "", false, err
	}

	var out itemResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"data": body}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/" + collection.String())
	if err != nil {
		return "", false, catalogerrors.NewTransportError("catalog create in "+collection.String()+" failed", err)
	}
	if !resp.IsError() {
		if out.Data.DocumentID == "" {
			return "", false, catalogerrors.NewTransportError("catalog create in "+collection.String()+" returned no documentId", nil)
		}
		return out.Data.DocumentID, true, nil
	}

	replyErr := c.replyError(resp, collection)
	if !catalogerrors.IsConflict(replyErr) || len(key) == 0 {
		return "", false, replyErr
	}
	existing, err := c.Lookup(ctx, collection, key...)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve conflict in %s: %w", collection, err)
	}
	if existing.Found() {
		c.logger.Debugf("[Catalog] %s already present as %s", collection, existing.DocumentID)
		return existing.DocumentID, false, nil
	}
	return "", false, replyErr
}

// replyError maps an error reply to a CatalogError. A Strapi 400 for a unique attribute counts as a conflict.
func (c *CatalogClient) replyError(resp *resty.Response, collection models.Collection) error {
	status := &catalogerrors.StatusError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}
	env, _ := resp.Error().(*errorResponse)
	var message, field string
	if env != nil {
		message = env.Error.Message
		if f, ok := env.Error.Details["field"].(string); ok {
			field = f
		}
	}

	switch {
	case resp.StatusCode() == http.StatusConflict,
		resp.StatusCode() == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "unique"):
		e := catalogerrors.NewConflictError(collection.String(), field, "")
		e.Cause = status
		return e
	case resp.StatusCode() == http.StatusBadRequest:
		e := catalogerrors.NewValidationError(field, message)
		e.Cause = status
		return e
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return catalogerrors.NewCatalogError(catalogerrors.ErrorTypeUnauthorized, "catalog rejected the API token", status)
	}
	return catalogerrors.NewTransportError("catalog request failed", status)
}

var metaFields = []string{"id", "documentId", "createdAt", "updatedAt", "publishedAt"}

// wirePayload renders an entry as a create body: store-assigned attributes are dropped and
// relations use the connect-by-reference form.
func wirePayload(e models.Entry) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Collection(), err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Collection(), err)
	}
	for _, f := range metaFields {
		delete(body, f)
	}
	for _, r := range e.Relations() {
		body[r.Field] = map[string]any{
			"connect": []map[string]string{{"documentId": r.DocumentID}},
		}
	}
	return body, nil
}
