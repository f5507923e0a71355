// Package indicator drives the node's LEDs.
//
// Blinker is the fault indicator: a fixed number of on/off pulses on every
// configured output, ending with all outputs off. It is the only way a
// deployed node reports trouble to a person standing next to it, so it never
// fails: output errors are logged and skipped, and a panicking output is
// recovered.
//
// Activity is a single best-effort output that is lit while the node is
// joining the network and reading the sensor.
package indicator
