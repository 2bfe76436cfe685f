// Package main is the fluidlink application entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"fluidlink/internal"
	"fluidlink/internal/app/apps"
	"fluidlink/internal/app/cfg"
	"fluidlink/internal/pkg/log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CLI command definitions.
var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	rootCmd = &cobra.Command{
		Use: "fluidlink",
		RunE: func(*cobra.Command, []string) error {
			return nil
		},
	}

	senderCmd = &cobra.Command{
		Use:   "sender [gcode_file]",
		Short: "Starts the interactive G-Code sender console.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return nil
			}
			if _, err := os.Stat(args[0]); err != nil {
				return errors.Wrapf(err, "stat G-Code file %s failed", args[0])
			}
			return nil
		},
		RunE: runCmd,
	}

	controllerCmd = &cobra.Command{
		Use:   "controller",
		Short: "Starts a simulated motion controller.",
		RunE:  runCmd,
	}
)

func newApp(_ context.Context, cmd *cobra.Command, args []string) (apps.App, []string, error) {
	var err error
	var app apps.App
	switch cmd.Name() {
	case "sender":
		app, err = apps.NewSenderApp(cfg.EndpointFromEnv())
		if err != nil {
			return nil, nil, errors.Wrap(err, "new sender app failed")
		}
		args = append([]string{cmd.Name()}, args...)
		return app, args, nil
	case "controller":
		app, err = apps.NewControllerApp(cfg.EndpointFromEnv())
		if err != nil {
			return nil, nil, errors.Wrap(err, "new controller app failed")
		}
		args = append([]string{cmd.Name()}, args...)
		return app, args, nil
	default:
		return nil, nil, fmt.Errorf("unknown command: %s", cmd.Name())
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := chainedCheck(
		ctx,
		envCheck,
	); err != nil {
		return errors.Wrap(err, "chained check failed")
	}
	app, args, err := newApp(cmd.Context(), cmd, args)
	if err != nil {
		return errors.Wrapf(err, "new %s app failed", cmd.Name())
	}
	return errors.Wrap(app.Run(ctx, args), "run app failed")
}

func envCheck(ctx context.Context) error {
	err := internal.ValidateEnv()
	if err != nil {
		return errors.Wrap(err, "validate env failed")
	}
	log.SetLogger(internal.LogLevel)
	return nil
}

func chainedCheck(ctx context.Context, checks ...func(context.Context) error) error {
	for _, check := range checks {
		err := check(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	err := internal.RegisterCommandFlags(rootCmd, []*internal.Flag{
		&internal.LogLevelFlag,

		&internal.HostFlag,
		&internal.PortFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(senderCmd, []*internal.Flag{
		&internal.SettingsDirFlag,
		&internal.JogFeedFlag,
		&internal.JogStepFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(controllerCmd, []*internal.Flag{
		&internal.ReportMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	rootCmd.AddCommand(
		senderCmd,
		controllerCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
