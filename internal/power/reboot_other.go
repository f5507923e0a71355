//go:build !linux

package power

func reboot(Kind) error {
	return ErrUnsupported
}
