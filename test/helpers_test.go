//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/rapidfit/internal/usersync"

	"github.com/brianvoe/gofakeit/v6"
)

type testUser struct {
	name     string
	email    string
	password string
}

func newTestUser() testUser {
	return testUser{
		name:     gofakeit.Name(),
		email:    strings.ToLower(gofakeit.Email()),
		password: gofakeit.Password(true, true, true, false, false, 12),
	}
}

// doRequest sends a JSON request and returns the status code and the response body.
func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, token string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBytes
}

// registeredClient registers a fresh user and returns a logged in API client.
func (s *IntegrationTestSuite) registeredClient(ctx context.Context) (*usersync.APIClient, *usersync.AuthResponse, testUser) {
	user := newTestUser()
	client := usersync.NewAPIClient(serverEndpoint)
	res, err := client.Register(ctx, user.name, user.email, user.password)
	s.Require().NoError(err)
	s.Require().NotEmpty(res.Token)
	return client, res, user
}
