package apps

import (
	"context"
	"fmt"
	"time"

	"fluidlink/internal"
	"fluidlink/internal/pkg/controller"
	"fluidlink/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ControllerAppCfg configures a ControllerApp.
type ControllerAppCfg interface {
	ApplyControllerApp(*ControllerApp) error
}

// ControllerApp runs the simulated motion controller.
type ControllerApp struct {
	Host string
	Port uint16 `validate:"required"`
}

// NewControllerApp creates a new ControllerApp.
func NewControllerApp(cfgs ...ControllerAppCfg) (*ControllerApp, error) {
	app := &ControllerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyControllerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ControllerApp cfg failed")
		}
	}
	if app.Host == "" {
		app.Host = internal.Host
	}
	if app.Port == 0 {
		app.Port = internal.Port
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ControllerApp failed")
	}
	return app, nil
}

func (app *ControllerApp) Run(ctx context.Context, args []string) error {
	ctrl, err := controller.NewController(
		controller.WithAddr(fmt.Sprintf("%s:%d", app.Host, app.Port)),
		controller.WithReportInterval(time.Duration(internal.ReportMS)*time.Millisecond),
	)
	if err != nil {
		return errors.Wrap(err, "create controller failed")
	}
	return errors.Wrap(ctrl.Run(ctx), "run controller failed")
}
