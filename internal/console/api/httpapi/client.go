package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
)

// Client implements storage.EventItemService against a remote API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Read returns the record for the key, or storage.ErrNotFound.
func (c *Client) Read(ctx context.Context, eventID, operation string) (storage.Record, error) {
	query := url.Values{}
	query.Set("eventId", eventID)
	query.Set("operation", operation)

	var record storage.Record
	if err := c.do(ctx, http.MethodGet, "/v1/items?"+query.Encode(), nil, &record); err != nil {
		return storage.Record{}, err
	}
	return record, nil
}

// Create stores a new record and returns the canonical version.
func (c *Client) Create(ctx context.Context, record storage.Record) (storage.Record, error) {
	var created storage.Record
	if err := c.do(ctx, http.MethodPost, "/v1/items", record, &created); err != nil {
		return storage.Record{}, err
	}
	return created, nil
}

// Save upserts the record and returns the stored version.
func (c *Client) Save(ctx context.Context, record storage.Record) (storage.Record, error) {
	var saved storage.Record
	if err := c.do(ctx, http.MethodPut, "/v1/items", record, &saved); err != nil {
		return storage.Record{}, err
	}
	return saved, nil
}

// ListByEventID returns every record of the event.
func (c *Client) ListByEventID(ctx context.Context, eventID string) ([]storage.Record, error) {
	query := url.Values{}
	query.Set("eventId", eventID)

	var records []storage.Record
	if err := c.do(ctx, http.MethodGet, "/v1/items?"+query.Encode(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateInvitations creates one invitation per contact and returns the
// response string with the assigned ids.
func (c *Client) CreateInvitations(ctx context.Context, eventID string, contacts []invitation.Contact, template invitation.Template) (string, error) {
	request := createInvitationsRequest{
		EventID:  eventID,
		Contacts: contacts,
		Template: template,
	}
	var response createInvitationsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invitations", request, &response); err != nil {
		return "", err
	}
	return response.Response, nil
}

// UpdateInvitations applies a status change or field update to the listed
// invitations.
func (c *Client) UpdateInvitations(ctx context.Context, eventID string, ids []string, templateID string, fields map[string]string, status invitation.Status) error {
	request := updateInvitationsRequest{
		EventID:    eventID,
		IDs:        ids,
		TemplateID: templateID,
		Fields:     fields,
		Status:     status,
	}
	return c.do(ctx, http.MethodPost, "/v1/invitations/update", request, nil)
}

// SendInvitations stamps the listed invitations SENT.
func (c *Client) SendInvitations(ctx context.Context, eventID string, ids []string) error {
	request := sendInvitationsRequest{EventID: eventID, IDs: ids}
	return c.do(ctx, http.MethodPost, "/v1/invitations/send", request, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return decodeError(response)
	}
	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(response *http.Response) error {
	var body errorResponse
	message := response.Status
	if err := json.NewDecoder(response.Body).Decode(&body); err == nil && body.Error != "" {
		message = body.Error
	}
	switch response.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, storage.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", message, storage.ErrAlreadyExists)
	default:
		return fmt.Errorf("remote error: %s", message)
	}
}
