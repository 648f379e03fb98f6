package daemon

import "strings"

// unitTemplate is the systemd service for the fuelgauge daemon.
const unitTemplate = `[Unit]
Description=fuelgauge battery telemetry daemon
After=local-fs.target

[Service]
Type=simple
ExecStart=/path/to/fuelgauge daemon
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

func renderUnit(exePath string) string {
	return strings.ReplaceAll(unitTemplate, "/path/to/fuelgauge", exePath)
}
