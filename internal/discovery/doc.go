// Package discovery finds the collector webhook on the local network.
//
// When no webhook URL is configured, the node browses for "_snownode._tcp"
// services in "local." and posts to the first one that answers. The TXT
// record "path" gives the webhook path:
//
//	collector._snownode._tcp.local.  port 8080  TXT "path=/hooks/snow"
//	  -> http://192.168.1.20:8080/hooks/snow
//
// Requires multicast on the wireless interface and UDP port 5353 open.
package discovery
