//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/rapidfit/internal/rapidtree"
)

func (s *IntegrationTestSuite) treeRequest(ctx context.Context, path, token string, body any) (int, rapidtree.TreeView) {
	method := http.MethodPost
	if path == "/api/rapid-tree" {
		method = http.MethodGet
	}
	status, respBody := s.doRequest(ctx, method, path, token, body)

	var view rapidtree.TreeView
	if status == http.StatusOK {
		s.Require().NoError(json.Unmarshal(respBody, &view))
	}
	return status, view
}

func nodeOf(view rapidtree.TreeView, category, nodeID string) rapidtree.NodeView {
	for _, c := range view.Categories {
		if c.Name != category {
			continue
		}
		for _, n := range c.Nodes {
			if n.ID == nodeID {
				return n
			}
		}
	}
	return rapidtree.NodeView{}
}

func (s *IntegrationTestSuite) TestRapidTree() {
	ctx := context.Background()
	_, res, _ := s.registeredClient(ctx)
	token := res.Token

	status, view := s.treeRequest(ctx, "/api/rapid-tree", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0, view.Progress)
	s.Equal(rapidtree.StateUnlockedIncomplete, nodeOf(view, "push", "wall-pushup").State)
	s.Equal(rapidtree.StateLocked, nodeOf(view, "push", "incline-pushup").State)

	status, _ = s.treeRequest(ctx, "/api/rapid-tree/complete", token, map[string]string{
		"category": "push",
		"nodeId":   "incline-pushup",
	})
	s.Equal(http.StatusConflict, status)

	status, view = s.treeRequest(ctx, "/api/rapid-tree/complete", token, map[string]string{
		"category": "push",
		"nodeId":   "wall-pushup",
	})
	s.Require().Equal(http.StatusOK, status)
	s.True(nodeOf(view, "push", "wall-pushup").IsCompleted)
	s.True(nodeOf(view, "push", "wall-pushup").CanReset)
	s.False(nodeOf(view, "push", "incline-pushup").IsLocked)
	s.Greater(view.Progress, 0)

	status, _ = s.treeRequest(ctx, "/api/rapid-tree/complete", token, map[string]string{
		"category": "push",
		"nodeId":   "incline-pushup",
	})
	s.Require().Equal(http.StatusOK, status)

	// the successor is completed
	status, _ = s.treeRequest(ctx, "/api/rapid-tree/reset", token, map[string]string{
		"category": "push",
		"nodeId":   "wall-pushup",
	})
	s.Equal(http.StatusConflict, status)

	status, _ = s.treeRequest(ctx, "/api/rapid-tree/reset", token, map[string]string{
		"category": "nope",
		"nodeId":   "wall-pushup",
	})
	s.Equal(http.StatusNotFound, status)

	// persisted under the user data
	status, body := s.doRequest(ctx, http.MethodGet, "/api/user-data/get-data", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(body), "incline-pushup")

	status, view = s.treeRequest(ctx, "/api/rapid-tree/reset-all", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0, view.Progress)
	s.True(nodeOf(view, "push", "incline-pushup").IsLocked)
}
