package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
)

const (
	// ServiceType is the mDNS service type collectors advertise.
	ServiceType = "_snownode._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout bounds one lookup.
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry advertises port 0.
	DefaultPort = 80
)

// ErrNotFound is returned when no collector answered before the timeout.
var ErrNotFound = errors.New("no collector found")

// BrowseFunc starts an mDNS browse that delivers entries until ctx ends.
type BrowseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Scanner looks up the collector over mDNS.
type Scanner struct {
	// Service is the service type to browse.
	Service string

	// Timeout is the maximum time to wait for an answer.
	Timeout time.Duration

	// Browse performs the mDNS browse. Defaults to a zeroconf resolver.
	Browse BrowseFunc

	logger *zap.Logger
}

// NewScanner creates a Scanner with default settings.
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		Service: ServiceType,
		Timeout: DefaultScanTimeout,
		Browse:  zeroconfBrowse,
		logger:  logging.OrNop(logger),
	}
}

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// FindCollector returns the first usable collector that answers. Entries are
// consumed on the calling goroutine.
func (s *Scanner) FindCollector(ctx context.Context) (*Collector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := s.Browse(ctx, s.Service, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil, ErrNotFound
			}
			if c := parseServiceEntry(entry); c != nil {
				s.logger.Info("collector discovered", zap.Stringer("collector", c))
				return c, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("%w within %v", ErrNotFound, s.Timeout)
		}
	}
}

// parseServiceEntry converts a zeroconf service entry to a Collector.
// Returns nil if the entry has no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Collector {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Collector{
		Instance: entry.Instance,
		Hostname: entry.HostName,
		IP:       ip,
		Port:     port,
		Metadata: metadata,
	}
}
