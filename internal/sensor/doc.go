// Package sensor reads temperature and relative humidity from the node's
// I²C sensor.
//
// A Reader wraps a Driver (AHT20 or SHTC3). Every read waits the driver's
// settle delay before touching the bus, and driver failures are reported as
// a *SenseError. WarmUp performs a read whose result and failure are both
// discarded, then pauses so the part can stabilise after power-up.
package sensor
