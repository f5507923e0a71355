package report

import (
	"encoding/json"
	"fmt"

	"github.com/snowsensor/snownode/internal/identity"
	"github.com/snowsensor/snownode/internal/sensor"
)

// Shape selects the JSON body layout. A deployment uses exactly one.
type Shape string

const (
	// ShapeDual nests the temperature in both units:
	// {"celsius": c, "fahrenheit": f}.
	ShapeDual Shape = "dual"
	// ShapeScalar carries the temperature as one number in the reading's unit.
	ShapeScalar Shape = "scalar"
)

// Payload is the report body.
type Payload struct {
	DeviceID    string      `json:"device_id"`
	Measurement Measurement `json:"measurement"`
}

// Measurement is the reading part of the body. Temperature holds either a
// DualTemperature or a float64 depending on the Shape.
type Measurement struct {
	Timestamp   int64   `json:"timestamp,omitempty"`
	Temperature any     `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// DualTemperature carries both units.
type DualTemperature struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
}

// BuildPayload assembles the body for one reading.
func BuildPayload(shape Shape, id identity.ID, r sensor.Reading) (*Payload, error) {
	m := Measurement{
		Timestamp: r.Timestamp,
		Humidity:  r.Humidity,
	}

	switch shape {
	case ShapeDual, "":
		m.Temperature = DualTemperature{
			Celsius:    r.Celsius,
			Fahrenheit: r.Fahrenheit(),
		}
	case ShapeScalar:
		m.Temperature = r.Temperature
	default:
		return nil, fmt.Errorf("unknown payload shape %q", shape)
	}

	return &Payload{DeviceID: string(id), Measurement: m}, nil
}

// Encode builds and marshals the body.
func Encode(shape Shape, id identity.ID, r sensor.Reading) ([]byte, error) {
	p, err := BuildPayload(shape, id, r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}
