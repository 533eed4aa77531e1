package userdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/rapidfit/internal/rapidtree"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	ErrInvalidPayload = errors.New("invalid payload")
)

type SavedExercise struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,max=200"`
	BodyPart  string `json:"bodyPart" validate:"max=100"`
	Target    string `json:"target" validate:"max=100"`
	Equipment string `json:"equipment" validate:"max=100"`
	GifURL    string `json:"gifUrl" validate:"omitempty,url"`
}

type ExerciseLogEntry struct {
	ID       string  `json:"id"`
	Exercise string  `json:"exercise" validate:"required,max=200"`
	Sets     int     `json:"sets" validate:"gte=0,lte=1000"`
	Reps     int     `json:"reps" validate:"gte=0,lte=10000"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	Date     string  `json:"date" validate:"required"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

type ChatMessage struct {
	Role      string `json:"role" validate:"required,oneof=user bot"`
	Text      string `json:"text" validate:"required"`
	Timestamp string `json:"timestamp"`
}

type TrackerExercise struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,max=200"`
	Reps        int    `json:"reps" validate:"gte=0"`
	DurationSec int    `json:"durationSec" validate:"gte=0"`
	Date        string `json:"date" validate:"required"`
}

func isNullOrEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// normalizeList decodes a JSON array of T, fills missing ids, validates
// every item, and returns the canonical encoding. null becomes [].
func normalizeList[T any](raw []byte, prepare func(*T)) ([]byte, error) {
	items := []T{}
	if !isNullOrEmpty(raw) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	if items == nil {
		items = []T{}
	}

	for i := range items {
		if prepare != nil {
			prepare(&items[i])
		}
		if err := validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrInvalidPayload, i, err)
		}
	}
	return json.Marshal(items)
}

// NormalizePayload validates the document of the given kind, and returns the form it is stored in.
func NormalizePayload(catalog *rapidtree.Catalog, dataType DataType, raw []byte) ([]byte, error) {
	switch dataType {
	case DataTypeSavedExercises:
		return normalizeList(raw, func(e *SavedExercise) { ensureID(&e.ID) })
	case DataTypeExerciseLog:
		return normalizeList(raw, func(e *ExerciseLogEntry) { ensureID(&e.ID) })
	case DataTypeChatHistory:
		return normalizeList[ChatMessage](raw, nil)
	case DataTypeTrackerExercises:
		return normalizeList(raw, func(e *TrackerExercise) { ensureID(&e.ID) })
	case DataTypeRapidTreeProgress:
		normalized, err := rapidtree.Normalize(catalog, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return normalized, nil
	}
	return nil, ErrInvalidDataType
}
