package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CarID
	}{
		{"number", `{"id": 7}`, "7"},
		{"string", `{"id": "land-cruiser"}`, "land-cruiser"},
		{"null", `{"id": null}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var car Car
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &car))
			assert.Equal(t, tt.want, car.ID)
		})
	}
}

func TestCarID_RejectsObjects(t *testing.T) {
	var car Car
	assert.Error(t, json.Unmarshal([]byte(`{"id": {"x": 1}}`), &car))
}
