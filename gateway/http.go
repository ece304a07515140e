package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tailcart/faults"
	"tailcart/models"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 10 * time.Second

// Client is the HTTP implementation of Remote against the store API.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a gateway client for the given base URL.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/admin/products/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCartLine(ctx context.Context, owner string, petID, productID, quantity int) (models.CartLine, error) {
	payload := map[string]any{
		"owner":    owner,
		"pet":      petID,
		"product":  productID,
		"quantity": quantity,
	}
	var out models.CartLine
	if err := c.do(ctx, http.MethodPost, "/api/user/cart/", nil, payload, &out); err != nil {
		return models.CartLine{}, err
	}
	return out, nil
}

func (c *Client) ListCartLines(ctx context.Context, owner string) ([]models.CartLine, error) {
	q := url.Values{"user_id": {owner}}
	var out []models.CartLine
	if err := c.do(ctx, http.MethodGet, "/api/user/cart/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateCartLine(ctx context.Context, owner string, cartID, quantity int) (models.CartLine, error) {
	payload := map[string]any{
		"user_id":  owner,
		"cart_id":  cartID,
		"quantity": quantity,
	}
	var out models.CartLine
	if err := c.do(ctx, http.MethodPut, "/api/user/cart/", nil, payload, &out); err != nil {
		return models.CartLine{}, err
	}
	return out, nil
}

func (c *Client) DeleteCartLine(ctx context.Context, cartID int) error {
	q := url.Values{"cart_id": {strconv.Itoa(cartID)}}
	return c.do(ctx, http.MethodDelete, "/api/user/cart/", q, nil, nil)
}

func (c *Client) ListPets(ctx context.Context, owner string) ([]models.Pet, error) {
	q := url.Values{"user_id": {owner}}
	var out []models.Pet
	if err := c.do(ctx, http.MethodGet, "/api/user/pets/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (models.CheckoutResponse, error) {
	payload := map[string]any{
		"user_id":      req.Owner,
		"items":        req.Lines,
		"total_amount": req.Total,
	}
	var out models.CheckoutResponse
	headers := http.Header{}
	if req.IdempotencyKey != "" {
		headers.Set("Idempotency-Key", req.IdempotencyKey)
	}
	if err := c.doWithHeaders(ctx, http.MethodPost, "/api/checkout/", nil, payload, &out, headers); err != nil {
		return models.CheckoutResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	return c.doWithHeaders(ctx, method, path, query, payload, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, query url.Values, payload, out any, headers http.Header) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return faults.Network(err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return faults.Network(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return faults.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if resp.StatusCode < 500 {
			return faults.RemoteValidation(flattenServerMessage(raw))
		}
		return faults.Network(fmt.Errorf("upstream returned %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return faults.Network(fmt.Errorf("decoding upstream response: %v", err))
	}
	return nil
}

// flattenServerMessage turns a 4xx body into a single renderable line: a
// plain string body is kept as is, {"detail": …} is unwrapped, and a
// field→messages map becomes "field: msg, msg" lines.
func flattenServerMessage(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return trimmed
	}
	if detail, ok := asMap["detail"].(string); ok {
		return detail
	}

	fields := make([]string, 0, len(asMap))
	for field := range asMap {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		switch v := asMap[field].(type) {
		case []any:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, field+": "+strings.Join(msgs, ", "))
		default:
			parts = append(parts, field+": "+fmt.Sprint(v))
		}
	}
	return strings.Join(parts, "\n")
}
