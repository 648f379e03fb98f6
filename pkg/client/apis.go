package client

import (
	"encoding/json"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/types"
)

func (c *Client) GetTelemetry() (*types.Telemetry, error) {
	ret, err := c.Get("/telemetry")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get telemetry")
	}

	var t types.Telemetry
	if err := json.Unmarshal([]byte(ret), &t); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal telemetry")
	}
	return &t, nil
}

func (c *Client) GetVoltage() (int, error) {
	ret, err := c.Get("/voltage")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get voltage")
	}
	mv, err := strconv.Atoi(strings.TrimSpace(ret))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal voltage")
	}
	return mv, nil
}

func (c *Client) GetCapacity() (int, error) {
	ret, err := c.Get("/capacity")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get capacity")
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(ret))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal capacity")
	}
	return capacity, nil
}

func (c *Client) GetStatus() (gauge.ChargeStatus, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return gauge.Unknown, pkgerrors.Wrapf(err, "failed to get charge status")
	}

	var s gauge.ChargeStatus
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return gauge.Unknown, pkgerrors.Wrapf(err, "failed to unmarshal charge status")
	}
	return s, nil
}

func (c *Client) GetACOnline() (bool, error) {
	ret, err := c.Get("/ac-online")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to check if ac is online")
	}
	return parseBoolResponse(ret)
}

func (c *Client) GetBatteryInfo() (*types.BatteryInfo, error) {
	ret, err := c.Get("/battery-info")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery info")
	}

	var bat types.BatteryInfo
	if err := json.Unmarshal([]byte(ret), &bat); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery info")
	}

	return &bat, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

func parseBoolResponse(resp string) (bool, error) {
	switch strings.TrimSpace(resp) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
