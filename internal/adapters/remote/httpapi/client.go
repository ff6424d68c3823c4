package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

// Dialer constructs chat service handles bound to one identity each.
// Construction validates the base URL and fails fast; no network call is
// made until the first operation.
type Dialer struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ ports.ChatDialer = Dialer{}

func (d Dialer) Dial(_ context.Context, identity domain.Identity) (ports.ChatService, error) {
	base, err := parseBaseURL(d.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := d.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{base: base, httpClient: httpClient, identity: identity}, nil
}

// Client implements ports.ChatService over JSON HTTP. The bound identity is
// attached as a bearer token on every request; the anonymous identity sends
// no authorization header.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	identity   domain.Identity
}

var _ ports.ChatService = (*Client)(nil)

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	var payload struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &payload); err != nil {
		return false, err
	}
	return payload.OK, nil
}

func (c *Client) Register(ctx context.Context, req ports.RegisterPayload) (ports.RegisterResult, error) {
	body := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{req.Username, req.Email, req.Password}

	var payload struct {
		Success   bool   `json:"success"`
		ErrorCode string `json:"error,omitempty"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/register", body, &payload); err != nil {
		return ports.RegisterResult{}, err
	}

	return ports.RegisterResult{Success: payload.Success, ErrorCode: payload.ErrorCode}, nil
}

type serverSchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) ListServers(ctx context.Context) ([]domain.Server, error) {
	var payload struct {
		Servers []serverSchema `json:"servers"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/servers", nil, &payload); err != nil {
		return nil, err
	}

	servers := make([]domain.Server, 0, len(payload.Servers))
	for _, entry := range payload.Servers {
		servers = append(servers, domain.Server{ID: domain.ServerID(entry.ID), Name: entry.Name})
	}
	return servers, nil
}

func (c *Client) CreateServer(ctx context.Context, name string) (domain.Server, error) {
	body := struct {
		Name string `json:"name"`
	}{name}

	var payload serverSchema
	if err := c.do(ctx, http.MethodPost, "/v1/servers", body, &payload); err != nil {
		return domain.Server{}, err
	}
	return domain.Server{ID: domain.ServerID(payload.ID), Name: payload.Name}, nil
}

func (c *Client) ListCategories(ctx context.Context, serverID domain.ServerID) ([]domain.Category, error) {
	var payload struct {
		Categories []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
	}
	path := fmt.Sprintf("/v1/servers/%s/categories", url.PathEscape(string(serverID)))
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(payload.Categories))
	for _, entry := range payload.Categories {
		categories = append(categories, domain.Category{
			ID:       domain.CategoryID(entry.ID),
			ServerID: serverID,
			Name:     entry.Name,
		})
	}
	return categories, nil
}

func (c *Client) ListChannels(ctx context.Context, serverID domain.ServerID) ([]domain.Channel, error) {
	var payload struct {
		Channels []struct {
			ID         string `json:"id"`
			CategoryID string `json:"categoryId"`
			Kind       string `json:"kind"`
			Name       string `json:"name"`
			Topic      string `json:"topic,omitempty"`
		} `json:"channels"`
	}
	path := fmt.Sprintf("/v1/servers/%s/channels", url.PathEscape(string(serverID)))
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(payload.Channels))
	for _, entry := range payload.Channels {
		channels = append(channels, domain.Channel{
			ID:         domain.ChannelID(entry.ID),
			CategoryID: domain.CategoryID(entry.CategoryID),
			Kind:       domain.ChannelKind(entry.Kind),
			Name:       entry.Name,
			Topic:      entry.Topic,
		})
	}
	return channels, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID domain.ChannelID, body string) error {
	payload := struct {
		Body string `json:"body"`
	}{body}
	path := fmt.Sprintf("/v1/channels/%s/messages", url.PathEscape(string(channelID)))
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) GetServerOrdering(ctx context.Context) ([]domain.ServerID, error) {
	var payload struct {
		Order []string `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/ordering/servers", nil, &payload); err != nil {
		return nil, err
	}

	order := make([]domain.ServerID, 0, len(payload.Order))
	for _, id := range payload.Order {
		order = append(order, domain.ServerID(id))
	}
	return order, nil
}

func (c *Client) SetServerOrdering(ctx context.Context, order []domain.ServerID) error {
	ids := make([]string, 0, len(order))
	for _, id := range order {
		ids = append(ids, string(id))
	}
	body := struct {
		Order []string `json:"order"`
	}{ids}
	return c.do(ctx, http.MethodPut, "/v1/ordering/servers", body, nil)
}

type orderingSchema struct {
	Categories []string                       `json:"categories"`
	Channels   map[string]map[string][]string `json:"channels"`
}

func (c *Client) GetChannelOrdering(ctx context.Context, serverID domain.ServerID) (domain.ChannelOrdering, error) {
	var payload orderingSchema
	path := fmt.Sprintf("/v1/servers/%s/ordering", url.PathEscape(string(serverID)))
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.ChannelOrdering{}, err
	}
	return fromOrderingSchema(payload), nil
}

func (c *Client) UpdateChannelOrdering(ctx context.Context, serverID domain.ServerID, ordering domain.ChannelOrdering) error {
	path := fmt.Sprintf("/v1/servers/%s/ordering", url.PathEscape(string(serverID)))
	return c.do(ctx, http.MethodPut, path, toOrderingSchema(ordering), nil)
}

func toOrderingSchema(ordering domain.ChannelOrdering) orderingSchema {
	out := orderingSchema{
		Categories: make([]string, 0, len(ordering.Categories)),
		Channels:   make(map[string]map[string][]string, len(ordering.Channels)),
	}
	for _, id := range ordering.Categories {
		out.Categories = append(out.Categories, string(id))
	}
	for category, kinds := range ordering.Channels {
		encoded := make(map[string][]string, len(kinds))
		for kind, ids := range kinds {
			list := make([]string, 0, len(ids))
			for _, id := range ids {
				list = append(list, string(id))
			}
			encoded[string(kind)] = list
		}
		out.Channels[string(category)] = encoded
	}
	return out
}

func fromOrderingSchema(payload orderingSchema) domain.ChannelOrdering {
	ordering := domain.ChannelOrdering{
		Categories: make([]domain.CategoryID, 0, len(payload.Categories)),
		Channels:   make(map[domain.CategoryID]map[domain.ChannelKind][]domain.ChannelID, len(payload.Channels)),
	}
	for _, id := range payload.Categories {
		ordering.Categories = append(ordering.Categories, domain.CategoryID(id))
	}
	for category, kinds := range payload.Channels {
		decoded := make(map[domain.ChannelKind][]domain.ChannelID, len(kinds))
		for kind, ids := range kinds {
			list := make([]domain.ChannelID, 0, len(ids))
			for _, id := range ids {
				list = append(list, domain.ChannelID(id))
			}
			decoded[domain.ChannelKind(kind)] = list
		}
		ordering.Channels[domain.CategoryID(category)] = decoded
	}
	return ordering
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	endpoint, err := c.base.Parse(path)
	if err != nil {
		return fmt.Errorf("parse api path: %w", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.identity.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+c.identity.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %s", method, path, decodeError(resp))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	return nil
}

func decodeError(resp *http.Response) string {
	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil || payload.Error == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return payload.Error
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("chat service base url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse chat service base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("chat service base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("chat service base url host is required")
	}

	return parsed, nil
}
