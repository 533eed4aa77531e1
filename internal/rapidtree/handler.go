package rapidtree

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/rapidfit/internal/middleware"
	"github.com/2beens/rapidfit/internal/telemetry/metrics"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=rapidtree_test

var validate = validator.New(validator.WithRequiredStructEnabled())

type progressStore interface {
	// LoadProgress returns the stored blob, nil when the user has none.
	LoadProgress(ctx context.Context, userID string) ([]byte, error)
	SaveProgress(ctx context.Context, userID string, blob []byte) error
}

type NodeRequest struct {
	Category string `json:"category" validate:"required"`
	NodeID   string `json:"nodeId" validate:"required"`
}

type Handler struct {
	catalog        *Catalog
	store          progressStore
	metricsManager *metrics.Manager
}

func NewHandler(catalog *Catalog, store progressStore, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		catalog:        catalog,
		store:          store,
		metricsManager: metricsManager,
	}
}

func (h *Handler) load(ctx context.Context, userID string) (Document, error) {
	blob, err := h.store.LoadProgress(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	doc, err := Deserialize(h.catalog, blob)
	if err != nil {
		// tolerated, the user starts over from the defaults
		log.Warnf("rapid tree of user %s: %s", userID, err)
	}
	return doc, nil
}

func (h *Handler) save(ctx context.Context, userID string, doc Document) error {
	blob, err := Serialize(doc)
	if err != nil {
		return err
	}
	return h.store.SaveProgress(ctx, userID, blob)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rapidtree.get")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	doc, err := h.load(ctx, userID)
	if err != nil {
		log.Errorf("load rapid tree of user %s: %s", userID, err)
		http.Error(w, "failed to get rapid tree", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, doc.View(), http.StatusOK)
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.handleNodeUpdate(w, r, "complete", func(doc Document, req NodeRequest) (Document, bool) {
		return doc.Complete(req.Category, req.NodeID)
	})
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.handleNodeUpdate(w, r, "reset", func(doc Document, req NodeRequest) (Document, bool) {
		return doc.Reset(req.Category, req.NodeID)
	})
}

func (h *Handler) handleNodeUpdate(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	apply func(doc Document, req NodeRequest) (Document, bool),
) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rapidtree."+operation)
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "category and nodeId are required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("category", req.Category),
		attribute.String("node", req.NodeID),
	)

	doc, err := h.load(ctx, userID)
	if err != nil {
		log.Errorf("load rapid tree of user %s: %s", userID, err)
		http.Error(w, "failed to update rapid tree", http.StatusInternalServerError)
		return
	}

	if _, found := doc.Node(req.Category, req.NodeID); !found {
		http.Error(w, "skill node not found", http.StatusNotFound)
		return
	}

	updated, applied := apply(doc, req)
	if !applied {
		http.Error(w, operation+" not allowed in the current state", http.StatusConflict)
		return
	}

	if err := h.save(ctx, userID, updated); err != nil {
		log.Errorf("save rapid tree of user %s: %s", userID, err)
		http.Error(w, "failed to update rapid tree", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterSkillTreeUpdates.WithLabelValues(operation).Inc()
	pkg.WriteJSON(w, updated.View(), http.StatusOK)
}

func (h *Handler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rapidtree.resetall")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	doc := ResetAll(h.catalog)
	if err := h.save(ctx, userID, doc); err != nil {
		log.Errorf("reset rapid tree of user %s: %s", userID, err)
		http.Error(w, "failed to reset rapid tree", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterSkillTreeUpdates.WithLabelValues("reset_all").Inc()
	pkg.WriteJSON(w, doc.View(), http.StatusOK)
}
