package main

import (
	"fmt"
	"net"
	"net/http"

	"github.com/cuemby/relay/pkg/bridge"
	"github.com/cuemby/relay/pkg/bus"
	"github.com/cuemby/relay/pkg/config"
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a relay manager until stopped",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("channel", "*", "Default channel for the root manager")
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if !rootCmd.PersistentFlags().Changed("log-level") && !rootCmd.PersistentFlags().Changed("log-json") {
		log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
	}

	channel, _ := cmd.Flags().GetString("channel")
	if !cmd.Flags().Changed("channel") || channel == "" {
		channel = cfg.Bus.Channel
	}

	mgr := bus.New("relayd")
	mgr.Channel = channel
	if cfg.Bus.GenerateEventsTimeout > 0 {
		mgr.GenerateEventsTimeout = cfg.Bus.GenerateEventsTimeout
	}

	registerDemoHandlers(mgr)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	var listener net.Listener
	if cfg.Bridge.Enabled {
		listener, err = net.Listen("tcp", cfg.Bridge.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on bridge addr: %w", err)
		}
		go serveBridge(mgr, listener)
		defer listener.Close()
	}

	log.Info(fmt.Sprintf("relayd starting on channel %q", channel))
	return mgr.Run(true)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped: " + err.Error())
	}
}

func serveBridge(mgr *bus.Manager, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		b := bridge.New(conn)
		go b.Pump(mgr)
	}
}

// registerDemoHandlers wires a minimal handler set onto the root so
// `relayd run` does something observable out of the box: logging every
// event it sees, on the "*" channel.
func registerDemoHandlers(mgr *bus.Manager) {
	mgr.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ev, _ := args[0].(*event.Event)
		if ev != nil {
			log.Info(fmt.Sprintf("event fired: %s", ev.Name))
		}
		return nil, nil
	}, nil, handler.WithEvent(), handler.WithLabel("demo:logger")))
}
