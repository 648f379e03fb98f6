package daemon

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	logrus.Infof("stopping fuelgauge")

	err := exec.Command(systemctlPath, "disable", "--now", unitName).Run()
	if err != nil {
		return fmt.Errorf("failed to disable %s: %w. Are you root?", unitName, err)
	}

	logrus.Infof("removing systemd unit")

	return removeUnit()
}

func removeUnit() error {
	p := unitPath()

	// if the file doesn't exist, we don't need to remove it
	_, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}

	err = os.Remove(p)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", p, err)
	}

	return nil
}
