package cli

import (
	"fmt"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/device"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
	"github.com/abharathkumarr/insect-id-runner/pkg/uiautomator2"
)

// session bundles the connected device and its automation session.
type session struct {
	Device *device.AndroidDevice
	Client *uiautomator2.Client
}

// openSession connects to the device, starts the UIAutomator2 server
// and creates an automation session. The returned cleanup tears both
// down; it is safe to call after a partial failure path has already
// stopped the server.
func openSession(cfg *config.Config, serial string, log *logger.Logger) (*session, func(), error) {
	dev, err := device.New(serial)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to device: %w", err)
	}
	log.Info("Connected to device: %s", dev.Serial())
	if info, err := dev.Info(); err == nil {
		log.Info("Device: %s %s (SDK %s, emulator: %t)", info.Brand, info.Model, info.SDK, info.IsEmulator)
	}

	uiaCfg := device.DefaultUIAutomator2Config()
	uiaCfg.DevicePort = cfg.Server.DevicePort
	uiaCfg.LocalPort = cfg.Server.LocalPort
	if err := dev.StartUIAutomator2(uiaCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to start UIAutomator2 server: %w", err)
	}
	log.Info("UIAutomator2 server ready on local port %d", dev.LocalPort())

	client := uiautomator2.NewClient(dev.LocalPort())
	client.SetLogWriter(log.Writer())

	if err := client.CreateSession(uiautomator2.Capabilities{
		PlatformName: "Android",
		DeviceName:   dev.Serial(),
	}); err != nil {
		dev.StopUIAutomator2(cfg.Server.DevicePort)
		return nil, nil, fmt.Errorf("failed to create automation session: %w", err)
	}
	log.Info("Automation session created: %s", client.SessionID())

	if err := client.SetImplicitWait(cfg.Timeouts.Implicit); err != nil {
		log.Warn("Could not set implicit wait: %v", err)
	}

	cleanup := func() {
		if err := client.DeleteSession(); err != nil {
			log.Debug("delete session: %v", err)
		}
		if err := dev.StopUIAutomator2(cfg.Server.DevicePort); err != nil {
			log.Debug("stop uiautomator2: %v", err)
		}
	}
	return &session{Device: dev, Client: client}, cleanup, nil
}
