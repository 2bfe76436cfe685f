package apps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fluidlink/internal"
	"fluidlink/internal/pkg/client"
	"fluidlink/internal/pkg/gcode"
	"fluidlink/internal/pkg/settings"
	"fluidlink/internal/pkg/validate"

	"github.com/ergochat/readline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	historyFileName  = ".fluidlink_history"
	historySize      = 500
	autoSaveInterval = 5 * time.Second
)

// SenderAppCfg configures a SenderApp.
type SenderAppCfg interface {
	ApplySenderApp(*SenderApp) error
}

// SenderApp is the interactive G-Code sender console.
type SenderApp struct {
	Host        string `validate:"required"`
	Port        uint16 `validate:"required"`
	SettingsDir string
	JogFeed     float64 `validate:"gt=0"`
	JogStep     float64 `validate:"gt=0"`
}

// NewSenderApp creates a new SenderApp.
func NewSenderApp(cfgs ...SenderAppCfg) (*SenderApp, error) {
	app := &SenderApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplySenderApp(app); err != nil {
			return nil, errors.Wrap(err, "apply SenderApp cfg failed")
		}
	}
	if app.Host == "" {
		app.Host = internal.Host
	}
	if app.Port == 0 {
		app.Port = internal.Port
	}
	if app.SettingsDir == "" {
		app.SettingsDir = internal.SettingsDir
	}
	if app.JogFeed == 0 {
		app.JogFeed = internal.JogFeed
	}
	if app.JogStep == 0 {
		app.JogStep = internal.JogStep
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate SenderApp failed")
	}
	return app, nil
}

// Run connects to the controller and drives the interactive console until
// EOF, interrupt or :quit. An optional argument names a G-Code file to
// enqueue before the console opens.
func (app *SenderApp) Run(ctx context.Context, args []string) error {
	store, err := settings.Open(app.SettingsDir)
	if err != nil {
		return errors.Wrap(err, "open settings failed")
	}
	if err := store.Update(func(s *settings.Settings) {
		s.Host = app.Host
		s.Port = app.Port
		s.JogFeed = app.JogFeed
		s.JogStep = app.JogStep
	}); err != nil {
		return errors.Wrap(err, "persist endpoint failed")
	}
	saveCtx, stopSave := context.WithCancel(ctx)
	defer stopSave()
	go store.AutoSave(saveCtx, autoSaveInterval)
	set := store.Get()

	c, err := client.NewClient(
		client.WithEndpoint(app.Host, app.Port),
		client.WithAutoReconnect(set.AutoReconnect),
		client.WithStatusFunc(func(mpos, wpos []float64) {
			logger.WithFields(logrus.Fields{"mpos": mpos, "wpos": wpos}).Debug("status report")
		}),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	c.OnConnect(func() {
		logger.WithField("addr", fmt.Sprintf("%s:%d", app.Host, app.Port)).Info("controller connected")
	})
	c.OnDisconnect(func() {
		logger.Warn("controller disconnected")
	})
	c.Start()
	defer c.Stop()

	if len(args) > 1 {
		n, err := streamFile(c, args[1])
		if err != nil {
			return errors.Wrapf(err, "stream %s failed", args[1])
		}
		logger.WithFields(logrus.Fields{"file": args[1], "lines": n}).Info("file queued")
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:       "fluidlink> ",
		HistoryFile:  historyPath(),
		HistoryLimit: historySize,
	})
	if err != nil {
		return errors.Wrap(err, "create line editor failed")
	}
	defer func() { _ = rl.Close() }()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.ReadLine()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read line failed")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if done := app.dispatch(os.Stdout, c, store, line); done {
			return nil
		}
	}
}

// dispatch handles one console line: meta-commands prefixed with a colon,
// anything else is sent to the controller verbatim.
func (app *SenderApp) dispatch(out io.Writer, c *client.Client, store *settings.Store, line string) (quit bool) {
	if !strings.HasPrefix(line, ":") {
		c.SendGCodeLine(line)
		return false
	}
	set := store.Get()
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":pos":
		r := c.Report()
		fmt.Fprintf(out, "MPos %v  WPos %v\n", r.MPos, r.WPos)
	case ":status":
		c.SendGCodeLine(gcode.StatusRequest())
	case ":home":
		if len(fields) == 1 {
			c.SendGCodeLine(gcode.HomeAll())
			return false
		}
		if !gcode.ValidAxis(fields[1]) {
			fmt.Fprintf(out, "unknown axis %q\n", fields[1])
			return false
		}
		c.SendGCodeLine(gcode.Home(fields[1]))
	case ":jog":
		if len(fields) < 2 || !gcode.ValidAxis(fields[1]) {
			fmt.Fprintln(out, "usage: :jog <axis> [distance]")
			return false
		}
		dist := set.JogStep
		if len(fields) > 2 {
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				fmt.Fprintf(out, "bad distance %q\n", fields[2])
				return false
			}
			dist = v
		}
		c.SendGCodeLine(gcode.Jog(fields[1], dist, set.JogFeed))
	case ":reconnect":
		enabled := !c.AutoReconnect()
		c.SetAutoReconnect(enabled)
		if err := store.Update(func(s *settings.Settings) { s.AutoReconnect = enabled }); err != nil {
			logger.WithError(err).Warn("persist auto-reconnect failed")
		}
		fmt.Fprintf(out, "auto-reconnect %v\n", enabled)
	default:
		fmt.Fprintf(out, "unknown command %s\n", fields[0])
	}
	return false
}

// streamFile enqueues every command line of a G-Code file, skipping blanks
// and comment lines.
func streamFile(c *client.Client, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open failed")
	}
	defer func() { _ = f.Close() }()
	var n int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "(") {
			continue
		}
		c.SendGCodeLine(line)
		n++
	}
	return n, errors.Wrap(sc.Err(), "scan failed")
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}
