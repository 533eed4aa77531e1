package userdata

import (
	"encoding/json"
	"errors"
)

type DataType string

const (
	DataTypeSavedExercises    DataType = "savedExercises"
	DataTypeExerciseLog       DataType = "exerciseLog"
	DataTypeChatHistory       DataType = "chatHistory"
	DataTypeRapidTreeProgress DataType = "rapidTreeProgress"
	DataTypeTrackerExercises  DataType = "trackerExercises"
)

var ErrInvalidDataType = errors.New("invalid data type")

// AllDataTypes lists every kind, in the order clients show them.
var AllDataTypes = []DataType{
	DataTypeSavedExercises,
	DataTypeExerciseLog,
	DataTypeChatHistory,
	DataTypeRapidTreeProgress,
	DataTypeTrackerExercises,
}

func (dt DataType) IsValid() bool {
	switch dt {
	case DataTypeSavedExercises,
		DataTypeExerciseLog,
		DataTypeChatHistory,
		DataTypeRapidTreeProgress,
		DataTypeTrackerExercises:
		return true
	}
	return false
}

func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if !dt.IsValid() {
		return "", ErrInvalidDataType
	}
	return dt, nil
}

// Default is the value returned for a kind the user never saved.
func (dt DataType) Default() json.RawMessage {
	if dt == DataTypeRapidTreeProgress {
		return json.RawMessage("null")
	}
	return json.RawMessage("[]")
}
