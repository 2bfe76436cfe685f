// Package apps wires the leaf packages into runnable applications.
package apps

import "context"

// App is a runnable fluidlink application.
type App interface {
	Run(ctx context.Context, args []string) error
}
