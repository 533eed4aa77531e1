//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/rapidfit/internal/usersync"
)

func (s *IntegrationTestSuite) TestRegisterAndLogin() {
	ctx := context.Background()

	client, res, user := s.registeredClient(ctx)
	s.Equal(user.email, res.User.Email)
	s.Equal(user.name, res.User.Name)

	me, err := client.User(ctx)
	s.Require().NoError(err)
	s.Equal(res.User.ID, me.ID)

	// same email, other casing
	other := usersync.NewAPIClient(serverEndpoint)
	_, err = other.Register(ctx, "Other", strings.ToUpper(user.email), "secret123")
	var apiErr *usersync.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusBadRequest, apiErr.StatusCode)

	_, err = other.Login(ctx, user.email, "wrong-password")
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusBadRequest, apiErr.StatusCode)

	loginRes, err := other.Login(ctx, "  "+strings.ToUpper(user.email)+" ", user.password)
	s.Require().NoError(err)
	s.Equal(res.User.ID, loginRes.User.ID)
	s.NotEqual(res.Token, loginRes.Token)
}

func (s *IntegrationTestSuite) TestRegisterValidation() {
	ctx := context.Background()

	status, _ := s.doRequest(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "123",
	})
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestLogout() {
	ctx := context.Background()
	client, res, _ := s.registeredClient(ctx)

	s.Require().NoError(client.Logout(ctx))
	s.False(client.Authenticated())

	status, _ := s.doRequest(ctx, http.MethodGet, "/api/auth/user", res.Token, nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestUpdateProfile() {
	ctx := context.Background()
	_, res, _ := s.registeredClient(ctx)

	newEmail := "Updated." + newTestUser().email
	status, body := s.doRequest(ctx, http.MethodPut, "/api/auth/update-profile", res.Token, map[string]string{
		"name":  "Updated Name",
		"email": newEmail,
	})
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp struct {
		User usersync.RemoteUser `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Equal("Updated Name", resp.User.Name)
	s.Equal(strings.ToLower(newEmail), resp.User.Email)
}

func (s *IntegrationTestSuite) TestPasswordReset() {
	ctx := context.Background()
	_, res, user := s.registeredClient(ctx)

	status, _ := s.doRequest(ctx, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "nobody-" + user.email,
	})
	s.Equal(http.StatusOK, status)

	status, _ = s.doRequest(ctx, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": user.email,
	})
	s.Require().Equal(http.StatusOK, status)

	// the mail is only logged, the token is read from redis
	resetToken := s.resetTokenOf(ctx, res.User.ID)
	s.Require().NotEmpty(resetToken)

	newPassword := "brand-new-pass"
	status, _ = s.doRequest(ctx, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    resetToken,
		"password": newPassword,
	})
	s.Require().Equal(http.StatusOK, status)

	// one time use
	status, _ = s.doRequest(ctx, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    resetToken,
		"password": "another-pass",
	})
	s.Equal(http.StatusBadRequest, status)

	client := usersync.NewAPIClient(serverEndpoint)
	_, err := client.Login(ctx, user.email, user.password)
	s.Error(err)
	_, err = client.Login(ctx, user.email, newPassword)
	s.NoError(err)
}

func (s *IntegrationTestSuite) resetTokenOf(ctx context.Context, userID string) string {
	keys, err := s.redisClient.Keys(ctx, "rapidfit-password-reset||*").Result()
	s.Require().NoError(err)
	for _, key := range keys {
		owner, err := s.redisClient.Get(ctx, key).Result()
		if err == nil && owner == userID {
			return strings.TrimPrefix(key, "rapidfit-password-reset||")
		}
	}
	return ""
}
