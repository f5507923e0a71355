package wireless

import "fmt"

// Status is the association state reported by a Station.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusWrongPassword
	StatusNoAPFound
	StatusConnectFail
	StatusGotIP
	// StatusUnknown is used when the status could not be read at all.
	StatusUnknown
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusWrongPassword:
		return "wrong_password"
	case StatusNoAPFound:
		return "no_ap_found"
	case StatusConnectFail:
		return "connect_fail"
	case StatusGotIP:
		return "got_ip"
	case StatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Transient reports whether a join may keep polling in this state.
func (s Status) Transient() bool {
	return s == StatusConnecting || s == StatusGotIP
}

// NetworkInfo describes the link once associated.
type NetworkInfo struct {
	Interface string
	SSID      string
	IP        string
	BSSID     string
}

// Station is the radio's station interface.
type Station interface {
	// IsConnected reports whether the station is associated with an address.
	IsConnected() bool
	// Activate brings the station interface up.
	Activate() error
	// Connect starts association with the given network. It does not wait.
	Connect(ssid, passphrase string) error
	// Status returns the current association state.
	Status() (Status, error)
	// Info returns the current link details.
	Info() (NetworkInfo, error)
}
