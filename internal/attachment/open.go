package attachment

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Open hands path to the desktop's default application and returns once the
// application is started.
func Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}

	cmd, err := openCommand(runtime.GOOS, path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open attachment %q: %w", path, err)
	}
	return cmd.Process.Release()
}

func openCommand(goos, path string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	}
	return nil, fmt.Errorf("open attachment: no file opener on %s", goos)
}
