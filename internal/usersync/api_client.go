package usersync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/rapidfit/internal/userdata"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 15 * time.Second

// Remote is the server copy of the user data.
type Remote interface {
	Authenticated() bool
	FetchAll(ctx context.Context) (map[userdata.DataType][]byte, error)
	Push(ctx context.Context, dataType userdata.DataType, data []byte) error
}

var _ Remote = (*APIClient)(nil)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

type RemoteUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  RemoteUser `json:"user"`
}

// APIClient talks to the rapidfit REST API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *APIClient) SetToken(token string) {
	c.token = token
}

func (c *APIClient) Token() string {
	return c.token
}

func (c *APIClient) Authenticated() bool {
	return c.token != ""
}

// do sends the request, and decodes a 2xx response into out when out is not nil.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	if !c.Authenticated() {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *APIClient) User(ctx context.Context) (*RemoteUser, error) {
	var res struct {
		User RemoteUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *APIClient) FetchAll(ctx context.Context) (map[userdata.DataType][]byte, error) {
	var res map[userdata.DataType]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/user-data/get-data", nil, &res); err != nil {
		return nil, err
	}

	all := make(map[userdata.DataType][]byte, len(res))
	for dataType, data := range res {
		if dataType.IsValid() {
			all[dataType] = data
		}
	}
	return all, nil
}

func (c *APIClient) Push(ctx context.Context, dataType userdata.DataType, data []byte) error {
	return c.do(ctx, http.MethodPost, "/api/user-data/save-data", userdata.SaveDataRequest{
		DataType: dataType,
		Data:     data,
	}, nil)
}
