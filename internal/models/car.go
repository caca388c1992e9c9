package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CarID accepts either a JSON number or a JSON string.
type CarID string

func (id *CarID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CarID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("car id must be a number or string: %w", err)
	}
	*id = CarID(n.String())
	return nil
}

func (id CarID) String() string { return string(id) }

type Car struct {
	ID              CarID  `json:"id"`
	Name            string `json:"name"`
	Image           string `json:"image,omitempty"`
	Engine          string `json:"engine"`
	Power           string `json:"power"`
	Torque          string `json:"torque"`
	Transmission    string `json:"transmission"`
	FuelEfficiency  string `json:"fuelEfficiency"`
	SeatingCapacity string `json:"seatingCapacity"`
	Price           string `json:"price"`
}
