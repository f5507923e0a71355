package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap/zaptest"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *zeroconf.ServiceEntry
		wantNil bool
		wantURL string
	}{
		{
			name: "IPv4 with path",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "collector"},
				HostName:      "collector.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
				Text:          []string{"path=/hooks/snow", "version=2"},
			},
			wantURL: "http://192.168.1.20:8080/hooks/snow",
		},
		{
			name: "default port and root path",
			entry: &zeroconf.ServiceEntry{
				HostName: "collector.local.",
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantURL: "http://10.0.0.5:80/",
		},
		{
			name: "path without leading slash",
			entry: &zeroconf.ServiceEntry{
				Port:     9000,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{"path=ingest"},
			},
			wantURL: "http://10.0.0.5:9000/ingest",
		},
		{
			name: "IPv6 fallback",
			entry: &zeroconf.ServiceEntry{
				Port:     8080,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"path=/h"},
			},
			wantURL: "http://[fe80::1]:8080/h",
		},
		{
			name:    "no address",
			entry:   &zeroconf.ServiceEntry{HostName: "ghost.local.", Port: 80},
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("parseServiceEntry() = nil")
			}
			if got := c.WebhookURL(); got != tt.wantURL {
				t.Errorf("WebhookURL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestFindCollector(t *testing.T) {
	s := NewScanner(zaptest.NewLogger(t))
	s.Browse = func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		if service != ServiceType || domain != ServiceDomain {
			t.Errorf("browse(%q, %q)", service, domain)
		}
		entries <- &zeroconf.ServiceEntry{HostName: "noaddr.local."}
		entries <- &zeroconf.ServiceEntry{
			HostName: "collector.local.",
			Port:     8080,
			AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
			Text:     []string{"path=/hooks/snow"},
		}
		return nil
	}

	c, err := s.FindCollector(context.Background())
	if err != nil {
		t.Fatalf("FindCollector() error = %v", err)
	}
	if c.WebhookURL() != "http://192.168.1.20:8080/hooks/snow" {
		t.Errorf("WebhookURL() = %q", c.WebhookURL())
	}
}

func TestFindCollectorTimeout(t *testing.T) {
	s := NewScanner(zaptest.NewLogger(t))
	s.Timeout = 20 * time.Millisecond
	s.Browse = func(context.Context, string, string, chan<- *zeroconf.ServiceEntry) error {
		return nil
	}

	if _, err := s.FindCollector(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindCollector() error = %v, want ErrNotFound", err)
	}
}

func TestFindCollectorClosedChannel(t *testing.T) {
	s := NewScanner(nil)
	s.Browse = func(_ context.Context, _, _ string, entries chan<- *zeroconf.ServiceEntry) error {
		close(entries)
		return nil
	}

	if _, err := s.FindCollector(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindCollector() error = %v, want ErrNotFound", err)
	}
}

func TestFindCollectorBrowseError(t *testing.T) {
	s := NewScanner(nil)
	s.Browse = func(context.Context, string, string, chan<- *zeroconf.ServiceEntry) error {
		return errors.New("no multicast interface")
	}

	if _, err := s.FindCollector(context.Background()); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("FindCollector() error = %v, want browse error", err)
	}
}

func TestCollectorGetMetadataNilMap(t *testing.T) {
	c := &Collector{}
	if c.GetMetadata("path") != "" {
		t.Error("GetMetadata on nil map should be empty")
	}
}
