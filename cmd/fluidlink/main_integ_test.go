// build +integration
package main_test

import (
	"context"
	"net"
	"testing"
	"time"

	"fluidlink/internal"
	"fluidlink/internal/app/apps"
	"fluidlink/internal/app/cfg"
	"fluidlink/internal/pkg/client"

	"github.com/stretchr/testify/require"
)

func TestClientAgainstSimulatedController(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip()
	}
	require.NoError(t, internal.ValidateEnv())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := apps.NewControllerApp(cfg.NewEndpointCfg("127.0.0.1", port))
	require.NoError(t, err)
	go func() { _ = app.Run(ctx, nil) }()

	reports := make(chan []float64, 16)
	c, err := client.NewClient(
		client.WithEndpoint("127.0.0.1", port),
		client.WithAutoReconnect(true),
		client.WithStatusFunc(func(mpos, wpos []float64) {
			select {
			case reports <- mpos:
			default:
			}
		}),
	)
	require.NoError(t, err)
	c.Start()
	defer c.Stop()

	require.Eventually(t, c.Connected, 5*time.Second, 10*time.Millisecond)
	c.SendGCodeLine("G0 X5")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case mpos := <-reports:
			if len(mpos) == 3 && mpos[0] == 5 {
				return
			}
		case <-deadline:
			t.Fatal("controller never reported the commanded position")
		}
	}
}
