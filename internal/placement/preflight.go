package placement

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"centrifuge/internal/services"
)

// CheckRoot verifies that a configured root exists and is a readable,
// writable directory.
func CheckRoot(name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrConfiguration, "placement", "check root", fmt.Sprintf("%s %s does not exist", name, path), err)
		}
		return services.Wrap(services.ErrConfiguration, "placement", "check root", fmt.Sprintf("%s %s", name, path), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "placement", "check root", fmt.Sprintf("%s %s is not a directory", name, path), nil)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "placement", "check root", fmt.Sprintf("%s %s has insufficient permissions", name, path), err)
	}
	return nil
}
