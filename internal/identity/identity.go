// Package identity derives the device identity used to correlate reports.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ID is the device identity: a lowercase hexadecimal string derived once
// from a hardware-unique identifier. It never changes for the life of the
// process.
type ID string

func (id ID) String() string { return string(id) }

// machineIDBytes is how much of /etc/machine-id is used when falling back.
// 12 hex characters keep the ID the same length as a MAC-derived one.
const machineIDBytes = 12

// ErrNoIdentity is returned when neither source yields an identifier.
var ErrNoIdentity = errors.New("identity: no hardware identifier available")

// Source reads the raw identifiers. Fields are swappable for tests.
type Source struct {
	// HardwareAddr returns the MAC of the named interface.
	HardwareAddr func(iface string) (net.HardwareAddr, error)
	// ReadFile reads the machine-id fallback.
	ReadFile func(path string) ([]byte, error)
}

// DefaultSource reads from the running system.
func DefaultSource() Source {
	return Source{
		HardwareAddr: func(name string) (net.HardwareAddr, error) {
			ifc, err := net.InterfaceByName(name)
			if err != nil {
				return nil, err
			}
			return ifc.HardwareAddr, nil
		},
		ReadFile: os.ReadFile,
	}
}

// Derive returns the device ID: the hex-encoded MAC of iface when it has
// one, otherwise the leading characters of the machine-id file.
func (s Source) Derive(iface, machineIDPath string) (ID, error) {
	var causes []error

	if iface != "" && s.HardwareAddr != nil {
		mac, err := s.HardwareAddr(iface)
		switch {
		case err != nil:
			causes = append(causes, fmt.Errorf("interface %s: %w", iface, err))
		case len(mac) == 0:
			causes = append(causes, fmt.Errorf("interface %s has no hardware address", iface))
		default:
			return ID(hex.EncodeToString(mac)), nil
		}
	}

	if machineIDPath != "" && s.ReadFile != nil {
		raw, err := s.ReadFile(machineIDPath)
		if err != nil {
			causes = append(causes, fmt.Errorf("machine-id: %w", err))
		} else if id, ok := fromMachineID(raw); ok {
			return id, nil
		} else {
			causes = append(causes, fmt.Errorf("machine-id %s is not hexadecimal", machineIDPath))
		}
	}

	return "", errors.Join(append([]error{ErrNoIdentity}, causes...)...)
}

func fromMachineID(raw []byte) (ID, bool) {
	s := strings.ToLower(strings.TrimSpace(string(raw)))
	if len(s) < machineIDBytes {
		return "", false
	}
	s = s[:machineIDBytes]
	if _, err := hex.DecodeString(s); err != nil {
		return "", false
	}
	return ID(s), true
}
