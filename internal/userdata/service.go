package userdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/rapidfit/internal/rapidtree"
	"github.com/2beens/rapidfit/internal/telemetry/metrics"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=userdata_test

const cacheKeyPrefix = "userdata||"

type userDataRepo interface {
	Upsert(ctx context.Context, userID string, dataType DataType, data []byte, updatedAt time.Time) error
	Get(ctx context.Context, userID string, dataType DataType) ([]byte, error)
	GetAll(ctx context.Context, userID string) (map[DataType][]byte, error)
}

type NewServiceParams struct {
	Repo           userDataRepo
	Catalog        *rapidtree.Catalog
	Cache          *freecache.Cache
	CacheTTL       time.Duration
	MetricsManager *metrics.Manager
}

type Service struct {
	repo           userDataRepo
	catalog        *rapidtree.Catalog
	cache          *freecache.Cache
	cacheTTL       time.Duration
	metricsManager *metrics.Manager

	NowFunc func() time.Time
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		repo:           params.Repo,
		catalog:        params.Catalog,
		cache:          params.Cache,
		cacheTTL:       params.CacheTTL,
		metricsManager: params.MetricsManager,
		NowFunc:        time.Now,
	}
}

// Save validates and normalizes the document, then replaces the stored one.
func (s *Service) Save(ctx context.Context, userID string, dataType DataType, raw []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.userdata.save")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !dataType.IsValid() {
		return ErrInvalidDataType
	}

	normalized, err := NormalizePayload(s.catalog, dataType, raw)
	if err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, userID, dataType, normalized, s.NowFunc()); err != nil {
		return fmt.Errorf("upsert %s: %w", dataType, err)
	}

	if s.cache != nil {
		s.cache.Del([]byte(cacheKeyPrefix + userID))
	}
	s.metricsManager.CounterUserDataSaves.WithLabelValues(string(dataType)).Inc()
	return nil
}

// GetAll returns a JSON object with every kind, defaults filled in for kinds never saved.
func (s *Service) GetAll(ctx context.Context, userID string) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.userdata.getall")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cacheKey := []byte(cacheKeyPrefix + userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(cacheKey); err == nil {
			return cached, nil
		}
	}

	stored, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get all user data: %w", err)
	}

	all := make(map[DataType]json.RawMessage, len(AllDataTypes))
	for _, dt := range AllDataTypes {
		data, ok := stored[dt]
		if !ok || !json.Valid(data) {
			all[dt] = dt.Default()
			continue
		}
		all[dt] = data
	}

	res, err := json.Marshal(all)
	if err != nil {
		return nil, fmt.Errorf("marshal user data: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, res, int(s.cacheTTL.Seconds())); err != nil {
			log.Warnf("user data cache set: %s", err)
		}
	}
	return res, nil
}

// Get returns one kind, the default value when never saved.
func (s *Service) Get(ctx context.Context, userID string, dataType DataType) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.userdata.get")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !dataType.IsValid() {
		return nil, ErrInvalidDataType
	}

	data, err := s.repo.Get(ctx, userID, dataType)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return dataType.Default(), nil
		}
		return nil, err
	}
	return data, nil
}

// RapidTreeStore keeps rapid tree progress as the rapidTreeProgress kind of user data.
type RapidTreeStore struct {
	service *Service
}

func NewRapidTreeStore(service *Service) *RapidTreeStore {
	return &RapidTreeStore{service: service}
}

func (s *RapidTreeStore) LoadProgress(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.service.Get(ctx, userID, DataTypeRapidTreeProgress)
	if err != nil {
		return nil, err
	}
	if isNullOrEmpty(data) {
		return nil, nil
	}
	return data, nil
}

func (s *RapidTreeStore) SaveProgress(ctx context.Context, userID string, blob []byte) error {
	return s.service.Save(ctx, userID, DataTypeRapidTreeProgress, blob)
}
