package userdata

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoData = errors.New("no data stored")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert replaces the whole document of the given kind, last write wins.
func (r *Repo) Upsert(ctx context.Context, userID string, dataType DataType, data []byte, updatedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.userdata.upsert")
	span.SetAttributes(attribute.String("data_type", string(dataType)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO user_data (user_id, data_type, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, data_type)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at;`,
		userID, string(dataType), data, updatedAt,
	)
	return err
}

func (r *Repo) Get(ctx context.Context, userID string, dataType DataType) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.userdata.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrNoData) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var data []byte
	err = r.db.QueryRow(
		ctx,
		`SELECT data FROM user_data WHERE user_id = $1 AND data_type = $2;`,
		userID, string(dataType),
	).Scan(&data)
	if err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return data, nil
}

// GetAll returns the stored documents of the user, kinds never saved are absent.
func (r *Repo) GetAll(ctx context.Context, userID string) (_ map[DataType][]byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.userdata.getall")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT data_type, data FROM user_data WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[DataType][]byte)
	for rows.Next() {
		var dataType string
		var data []byte
		if err := rows.Scan(&dataType, &data); err != nil {
			return nil, err
		}
		if dt := DataType(dataType); dt.IsValid() {
			res[dt] = data
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}
