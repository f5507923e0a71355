package wireless

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultControlTimeout bounds each control-socket round trip.
const DefaultControlTimeout = 3 * time.Second

var clientSeq atomic.Uint64

// Supplicant is a Station backed by a wpa_supplicant control socket
// (ctrl_interface=/var/run/wpa_supplicant in wpa_supplicant.conf).
type Supplicant struct {
	// Interface is the wireless interface name, e.g. "wlan0".
	Interface string

	// ControlPath is the interface's control socket,
	// e.g. "/var/run/wpa_supplicant/wlan0".
	ControlPath string

	// LocalDir is where the client end of the socket is bound.
	// Defaults to os.TempDir().
	LocalDir string

	// Timeout bounds each request. Defaults to DefaultControlTimeout.
	Timeout time.Duration

	// networkID is the wpa_supplicant network selected by Connect.
	networkID string
}

// NewSupplicant creates a Station for iface using the control socket at path.
func NewSupplicant(iface, path string) *Supplicant {
	return &Supplicant{
		Interface:   iface,
		ControlPath: path,
		Timeout:     DefaultControlTimeout,
	}
}

// IsConnected reports whether wpa_supplicant has completed association and
// the interface has an address.
func (s *Supplicant) IsConnected() bool {
	st, err := s.status()
	if err != nil {
		return false
	}
	return st["wpa_state"] == "COMPLETED" && st["ip_address"] != ""
}

// Activate checks that wpa_supplicant is managing the interface.
func (s *Supplicant) Activate() error {
	reply, err := s.request("PING")
	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("wpa_supplicant: unexpected PING reply %q", reply)
	}
	return nil
}

// Connect configures the network and selects it. Existing network blocks
// with the same SSID are reused so repeated cycles do not pile up entries.
func (s *Supplicant) Connect(ssid, passphrase string) error {
	id, err := s.findNetwork(ssid)
	if err != nil {
		return err
	}
	if id == "" {
		if id, err = s.request("ADD_NETWORK"); err != nil {
			return err
		}
		if strings.HasPrefix(id, "FAIL") {
			return errors.New("wpa_supplicant: ADD_NETWORK failed")
		}
	}

	cmds := []string{"SET_NETWORK " + id + " ssid " + hex.EncodeToString([]byte(ssid))}
	if passphrase == "" {
		cmds = append(cmds, "SET_NETWORK "+id+" key_mgmt NONE")
	} else {
		cmds = append(cmds, "SET_NETWORK "+id+" psk "+quote(passphrase))
	}
	cmds = append(cmds, "SELECT_NETWORK "+id)

	for _, cmd := range cmds {
		if err := s.expectOK(cmd); err != nil {
			return err
		}
	}

	s.networkID = id
	return nil
}

// Status maps wpa_state (and the network's disabled flag) to a Status.
func (s *Supplicant) Status() (Status, error) {
	st, err := s.status()
	if err != nil {
		return StatusUnknown, err
	}

	if s.networkID != "" {
		disabled, err := s.tempDisabled(s.networkID)
		if err != nil {
			return StatusUnknown, err
		}
		if disabled {
			return StatusWrongPassword, nil
		}
	}

	return statusFromState(st["wpa_state"], st["ip_address"]), nil
}

// Info returns the current link details from STATUS.
func (s *Supplicant) Info() (NetworkInfo, error) {
	st, err := s.status()
	if err != nil {
		return NetworkInfo{}, err
	}
	return NetworkInfo{
		Interface: s.Interface,
		SSID:      st["ssid"],
		IP:        st["ip_address"],
		BSSID:     st["bssid"],
	}, nil
}

func statusFromState(state, ip string) Status {
	switch state {
	case "COMPLETED":
		if ip != "" {
			return StatusGotIP
		}
		return StatusConnecting
	case "SCANNING", "AUTHENTICATING", "ASSOCIATING", "ASSOCIATED",
		"4WAY_HANDSHAKE", "GROUP_HANDSHAKE", "DISCONNECTED":
		return StatusConnecting
	case "INACTIVE":
		return StatusNoAPFound
	case "INTERFACE_DISABLED":
		return StatusConnectFail
	default:
		return StatusIdle
	}
}

func (s *Supplicant) status() (map[string]string, error) {
	reply, err := s.request("STATUS")
	if err != nil {
		return nil, err
	}
	return parseKeyValues(reply), nil
}

// findNetwork returns the id of the configured network with this SSID, or "".
func (s *Supplicant) findNetwork(ssid string) (string, error) {
	rows, err := s.listNetworks()
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.ssid == ssid {
			return row.id, nil
		}
	}
	return "", nil
}

func (s *Supplicant) tempDisabled(id string) (bool, error) {
	rows, err := s.listNetworks()
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.id == id {
			return strings.Contains(row.flags, "[TEMP-DISABLED]"), nil
		}
	}
	return false, nil
}

type networkRow struct {
	id, ssid, flags string
}

func (s *Supplicant) listNetworks() ([]networkRow, error) {
	reply, err := s.request("LIST_NETWORKS")
	if err != nil {
		return nil, err
	}

	var rows []networkRow
	lines := strings.Split(reply, "\n")
	// first line is the header: network id / ssid / bssid / flags
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		row := networkRow{id: fields[0], ssid: fields[1]}
		if len(fields) >= 4 {
			row.flags = fields[3]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Supplicant) expectOK(cmd string) error {
	reply, err := s.request(cmd)
	if err != nil {
		return err
	}
	if reply != "OK" {
		verb, _, _ := strings.Cut(cmd, " ")
		return fmt.Errorf("wpa_supplicant: %s: %s", verb, reply)
	}
	return nil
}

// request performs one command/reply exchange on a fresh datagram socket.
func (s *Supplicant) request(cmd string) (string, error) {
	dir := s.LocalDir
	if dir == "" {
		dir = os.TempDir()
	}
	local := filepath.Join(dir, fmt.Sprintf("snownode-wpa-%d-%d", os.Getpid(), clientSeq.Add(1)))

	laddr := &net.UnixAddr{Name: local, Net: "unixgram"}
	raddr := &net.UnixAddr{Name: s.ControlPath, Net: "unixgram"}

	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return "", fmt.Errorf("wpa_supplicant: dial %s: %w", s.ControlPath, err)
	}
	defer func() {
		_ = conn.Close()
		_ = os.Remove(local)
	}()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultControlTimeout
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("wpa_supplicant: send %s: %w", cmd, err)
	}

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return "", fmt.Errorf("wpa_supplicant: read reply: %w", err)
		}
		reply := string(buf[:n])
		// unsolicited events look like "<3>CTRL-EVENT-..."
		if strings.HasPrefix(reply, "<") {
			continue
		}
		return strings.TrimRight(reply, "\n"), nil
	}
}

func parseKeyValues(s string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
