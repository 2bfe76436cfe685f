// Package cfg implements functionaltiy to configure an app.
//
// The configuration objects defined here need only be implemented once,
// but can be applied to multiple types.
//
// In order to add support for a new type, the configuration
// need only implement an ApplyX method.
//
package cfg

import (
	"fluidlink/internal"
	"fluidlink/internal/app/apps"
)

// EndpointCfg is configuration for the controller endpoint.
type EndpointCfg struct {
	host string
	port uint16
}

// NewEndpointCfg creates a new EndpointCfg from the given config.
func NewEndpointCfg(host string, port uint16) *EndpointCfg {
	return &EndpointCfg{
		host: host,
		port: port,
	}
}

// EndpointFromEnv creates a new EndpointCfg from the current environment.
func EndpointFromEnv() *EndpointCfg {
	return &EndpointCfg{
		host: internal.Host,
		port: internal.Port,
	}
}

// ApplySenderApp applies the EndpointCfg to a SenderApp.
func (cfg EndpointCfg) ApplySenderApp(app *apps.SenderApp) error {
	app.Host = cfg.host
	app.Port = cfg.port
	return nil
}

// ApplyControllerApp applies the EndpointCfg to a ControllerApp.
func (cfg EndpointCfg) ApplyControllerApp(app *apps.ControllerApp) error {
	app.Host = cfg.host
	app.Port = cfg.port
	return nil
}
