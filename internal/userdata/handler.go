package userdata

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/rapidfit/internal/middleware"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	log "github.com/sirupsen/logrus"
)

type SaveDataRequest struct {
	DataType DataType        `json:"dataType"`
	Data     json.RawMessage `json:"data"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleSaveData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.userdata.save")
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

	var req SaveDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Save(ctx, userID, req.DataType, req.Data); err != nil {
		switch {
		case errors.Is(err, ErrInvalidDataType):
			http.Error(w, "invalid data type", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidPayload):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Errorf("save user data [%s] of %s: %s", req.DataType, userID, err)
			http.Error(w, "failed to save data", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSONMessage(w, "data saved", http.StatusOK)
}

func (h *Handler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.userdata.get")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	data, err := h.service.GetAll(ctx, userID)
	if err != nil {
		log.Errorf("get user data of %s: %s", userID, err)
		http.Error(w, "failed to get data", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, data)
}
