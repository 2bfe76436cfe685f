// Package internal holds the flag and environment configuration shared by
// the fluidlink commands. Every value has an environment default that the
// corresponding command-line flag overrides.
package internal

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Flag binds a cobra string flag to a raw value with an env default.
// ValidateEnv parses the raw values into their typed counterparts after
// cobra has run.
type Flag struct {
	Name  string
	Usage string
	value *string
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Raw flag values, env-seeded.
var (
	logLevelRaw    = envOr("FLUIDLINK_LOG_LEVEL", "info")
	hostRaw        = envOr("FLUIDLINK_HOST", "127.0.0.1")
	portRaw        = envOr("FLUIDLINK_PORT", "23")
	settingsDirRaw = envOr("FLUIDLINK_SETTINGS_DIR", "config")
	jogFeedRaw     = envOr("FLUIDLINK_JOG_FEED", "1000")
	jogStepRaw     = envOr("FLUIDLINK_JOG_STEP", "1")
	reportMSRaw    = envOr("FLUIDLINK_REPORT_MS", "250")
)

// Typed configuration, populated by ValidateEnv.
var (
	LogLevel    string
	Host        string
	Port        uint16
	SettingsDir string
	JogFeed     float64
	JogStep     float64
	ReportMS    int
)

// Flag definitions.
var (
	LogLevelFlag = Flag{Name: "log-level", Usage: "log level (trace|debug|info|warn|error)", value: &logLevelRaw}
	HostFlag     = Flag{Name: "host", Usage: "controller host", value: &hostRaw}
	PortFlag     = Flag{Name: "port", Usage: "controller telnet port", value: &portRaw}

	SettingsDirFlag = Flag{Name: "settings-dir", Usage: "config directory for settings and recovery files", value: &settingsDirRaw}
	JogFeedFlag     = Flag{Name: "jog-feed", Usage: "jog feed rate in mm/min", value: &jogFeedRaw}
	JogStepFlag     = Flag{Name: "jog-step", Usage: "jog step in mm", value: &jogStepRaw}

	ReportMSFlag = Flag{Name: "report-ms", Usage: "status report interval in milliseconds", value: &reportMSRaw}
)

// RegisterCommandFlags registers the given flags on the command.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	for _, f := range flags {
		if f.value == nil {
			return errors.Errorf("flag %s has no value binding", f.Name)
		}
		cmd.PersistentFlags().StringVar(f.value, f.Name, *f.value, f.Usage)
	}
	return nil
}

// ValidateEnv parses the raw flag values into the typed configuration.
func ValidateEnv() error {
	LogLevel = logLevelRaw
	Host = hostRaw
	SettingsDir = settingsDirRaw

	port, err := strconv.ParseUint(portRaw, 10, 16)
	if err != nil || port == 0 {
		return errors.Errorf("invalid port %q", portRaw)
	}
	Port = uint16(port)

	JogFeed, err = strconv.ParseFloat(jogFeedRaw, 64)
	if err != nil || JogFeed <= 0 {
		return errors.Errorf("invalid jog feed %q", jogFeedRaw)
	}
	JogStep, err = strconv.ParseFloat(jogStepRaw, 64)
	if err != nil || JogStep <= 0 {
		return errors.Errorf("invalid jog step %q", jogStepRaw)
	}

	ReportMS, err = strconv.Atoi(reportMSRaw)
	if err != nil || ReportMS <= 0 {
		return errors.Errorf("invalid report interval %q", reportMSRaw)
	}
	return nil
}
