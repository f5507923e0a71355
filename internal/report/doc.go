// Package report posts sensor readings to the collector webhook.
//
// The body is JSON with the device identity and one measurement:
//
//	{"device_id": "b827eb12ab34",
//	 "measurement": {"timestamp": 1700000000,
//	                 "temperature": {"celsius": 22.5, "fahrenheit": 72.5},
//	                 "humidity": 47}}
//
// With the scalar shape, "temperature" is a single number in the configured
// unit. The timestamp is omitted when no time source is configured. The
// identity is also sent in the snow-device-mac header.
package report
