package sensor

// Unit is the temperature unit a Reading is expressed in.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// Reading is a single acquisition.
type Reading struct {
	// Celsius is the raw temperature from the sensor.
	Celsius float64
	// Temperature is Celsius converted to Unit.
	Temperature float64
	Unit        Unit
	// Humidity is relative humidity in percent.
	Humidity float64
	// Timestamp is Unix seconds, or 0 when no time source is configured.
	Timestamp int64
}

// Fahrenheit returns the reading's temperature in °F.
func (r Reading) Fahrenheit() float64 {
	return ToFahrenheit(r.Celsius)
}

// ToFahrenheit converts °C to °F.
func ToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
