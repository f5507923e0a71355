package discovery

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Collector is a webhook collector advertised on the local network.
type Collector struct {
	// Instance is the mDNS service instance name.
	Instance string

	// Hostname is the mDNS hostname (e.g., "collector.local.")
	Hostname string

	// IP is the address to post to, IPv4 preferred.
	IP string

	// Port is the HTTP port.
	Port int

	// Metadata contains the TXT record data. "path" is the webhook path.
	Metadata map[string]string
}

// String returns a human-readable string representation of the collector
func (c *Collector) String() string {
	return fmt.Sprintf("collector %q (%s) at %s", c.Instance, c.Hostname, net.JoinHostPort(c.IP, strconv.Itoa(c.Port)))
}

// WebhookURL returns the URL readings are posted to.
func (c *Collector) WebhookURL() string {
	path := c.GetMetadata("path")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(c.IP, strconv.Itoa(c.Port)),
		Path:   path,
	}
	return u.String()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Collector) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
