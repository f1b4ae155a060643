package main

import (
	"encoding/gob"
	"fmt"
	"net"

	"github.com/cuemby/relay/pkg/bridge"
	"github.com/spf13/cobra"
)

var fireCmd = &cobra.Command{
	Use:   "fire <addr> <event-name>",
	Short: "Fire an event at a running relayd instance's bridge listener",
	Args:  cobra.ExactArgs(2),
	RunE:  runFire,
}

func init() {
	fireCmd.Flags().StringSlice("channel", []string{"*"}, "Destination channels")
}

func runFire(cmd *cobra.Command, args []string) error {
	addr, name := args[0], args[1]
	channels, _ := cmd.Flags().GetStringSlice("channel")

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	enc := gob.NewEncoder(conn)
	env := bridge.Envelope{
		Kind:     "event",
		Name:     name,
		Channels: channels,
		Kwargs:   map[string]any{},
	}
	if err := enc.Encode(&env); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	fmt.Printf("fired %q on %v\n", name, channels)
	return nil
}
