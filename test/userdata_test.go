//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/rapidfit/internal/userdata"
	"github.com/2beens/rapidfit/internal/usersync"
)

func (s *IntegrationTestSuite) TestUserData_DefaultsAndRoundTrip() {
	ctx := context.Background()
	client, res, _ := s.registeredClient(ctx)

	all, err := client.FetchAll(ctx)
	s.Require().NoError(err)
	s.Len(all, len(userdata.AllDataTypes))
	s.JSONEq(`[]`, string(all[userdata.DataTypeExerciseLog]))
	s.JSONEq(`null`, string(all[userdata.DataTypeRapidTreeProgress]))

	s.Require().NoError(client.Push(ctx, userdata.DataTypeExerciseLog,
		[]byte(`[{"exercise":"Squat","sets":3,"reps":10,"weight":60,"date":"2026-10-01"}]`),
	))

	all, err = client.FetchAll(ctx)
	s.Require().NoError(err)
	var entries []userdata.ExerciseLogEntry
	s.Require().NoError(json.Unmarshal(all[userdata.DataTypeExerciseLog], &entries))
	s.Require().Len(entries, 1)
	s.NotEmpty(entries[0].ID)
	s.Equal("Squat", entries[0].Exercise)

	// whole document replacement
	s.Require().NoError(client.Push(ctx, userdata.DataTypeExerciseLog, []byte(`[]`)))
	all, err = client.FetchAll(ctx)
	s.Require().NoError(err)
	s.JSONEq(`[]`, string(all[userdata.DataTypeExerciseLog]))

	var rows int
	s.Require().NoError(s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_data WHERE user_id = $1`, res.User.ID,
	).Scan(&rows))
	s.Equal(1, rows)
}

func (s *IntegrationTestSuite) TestUserData_InvalidPayloads() {
	ctx := context.Background()
	_, res, _ := s.registeredClient(ctx)

	status, _ := s.doRequest(ctx, http.MethodPost, "/api/user-data/save-data", res.Token, map[string]any{
		"dataType": "bogus",
		"data":     []any{},
	})
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.doRequest(ctx, http.MethodPost, "/api/user-data/save-data", res.Token, map[string]any{
		"dataType": "chatHistory",
		"data":     []map[string]string{{"role": "admin", "text": "hi"}},
	})
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestUserData_SessionSync() {
	ctx := context.Background()
	client, _, _ := s.registeredClient(ctx)

	// a local only session, then the login bootstraps the empty server copy
	store, err := usersync.OpenBadgerStore("")
	s.Require().NoError(err)
	defer store.Close()

	offline := usersync.NewSession(store, nil)
	s.Require().NoError(offline.Set(ctx, userdata.DataTypeSavedExercises,
		[]byte(`[{"id":"0001","name":"Push-up","bodyPart":"chest","target":"pectorals","equipment":"body weight"}]`),
	))

	session := usersync.NewSession(store, client)
	report, err := session.Load(ctx)
	s.Require().NoError(err)
	s.Require().NoError(report.RemoteErr)
	s.Equal([]userdata.DataType{userdata.DataTypeSavedExercises}, report.Pushed)

	all, err := client.FetchAll(ctx)
	s.Require().NoError(err)
	s.Contains(string(all[userdata.DataTypeSavedExercises]), "Push-up")

	// a second device sees the server copy
	otherStore, err := usersync.OpenBadgerStore("")
	s.Require().NoError(err)
	defer otherStore.Close()

	otherSession := usersync.NewSession(otherStore, client)
	report, err = otherSession.Load(ctx)
	s.Require().NoError(err)
	s.Equal([]userdata.DataType{userdata.DataTypeSavedExercises}, report.Pulled)
	s.Contains(string(otherSession.Get(userdata.DataTypeSavedExercises)), "Push-up")
}
