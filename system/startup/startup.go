package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thatsimonsguy/light-meter/internal/env"
	"github.com/thatsimonsguy/light-meter/internal/input"
)

// WriteStartupScript writes a boot script that puts every button line into
// pulled-up input mode and releases the OLED reset line.
func WriteStartupScript() error {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Light meter GPIO pin configuration at boot", "")

	pins := env.Cfg.ButtonPins()
	buttons := make([]input.Button, 0, len(pins))
	for b := range pins {
		buttons = append(buttons, b)
	}
	sort.Slice(buttons, func(i, j int) bool { return buttons[i] < buttons[j] })

	for _, b := range buttons {
		lines = append(lines, fmt.Sprintf("# %s button", b))
		lines = append(lines, fmt.Sprintf("pinctrl set %d ip pu", pins[b]))
		lines = append(lines, "")
	}
	if reset := env.Cfg.GPIO.OLEDReset; reset != nil {
		lines = append(lines, "# oled reset, held high while running")
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn dh", *reset))
		lines = append(lines, "")
	}

	contents := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(env.Cfg.BootScriptFilePath, []byte(contents), 0755)
}

func InstallStartupService() error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure light meter GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, env.Cfg.BootScriptFilePath)

	return os.WriteFile(env.Cfg.GPIOServicePath, []byte(unitContents), 0644)
}

func RunStartupScript() error {
	cmd := exec.Command("/bin/bash", env.Cfg.BootScriptFilePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// InstallMeterService writes the main unit. It restarts on failure, which is
// how a sensor fault at boot gets retried.
func InstallMeterService() error {
	gpioUnitName := filepath.Base(env.Cfg.GPIOServicePath)

	unit := fmt.Sprintf(`[Unit]
Description=Light meter
After=%s
Requires=%s

[Service]
Type=simple
User=%s
WorkingDirectory=%s
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName, env.Cfg.ServiceUser, env.Cfg.ServiceWorkDir, env.Cfg.ServiceExec)

	return os.WriteFile(env.Cfg.ServicePath, []byte(unit), 0644)
}
