package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var (
	unitName      = "fuelgauge.service"
	unitDir       = "/etc/systemd/system"
	systemctlPath = "/bin/systemctl"
)

func unitPath() string {
	return filepath.Join(unitDir, unitName)
}

func Install() error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	if err := writeUnit(exePath); err != nil {
		return err
	}

	logrus.Infof("starting fuelgauge")

	for _, args := range [][]string{{"daemon-reload"}, {"enable", "--now", unitName}} {
		if err := exec.Command(systemctlPath, args...).Run(); err != nil {
			return fmt.Errorf("failed to run systemctl %v: %w", args, err)
		}
	}

	return nil
}

func writeUnit(exePath string) error {
	logrus.Infof("writing systemd unit to %s", unitDir)

	// mkdir -p
	err := os.MkdirAll(unitDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", unitDir, err)
	}

	p := unitPath()

	// warn if the file already exists
	_, err = os.Stat(p)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", p)
	}

	err = os.WriteFile(p, []byte(renderUnit(exePath)), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}

	return nil
}
