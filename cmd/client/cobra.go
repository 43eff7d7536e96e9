package client

import (
	"github.com/spf13/cobra"
)

// ServerFlag names the persistent flag holding the API base URL.
const ServerFlag = "server"

// FromCommand builds a client for the server selected on cmd.
func FromCommand(cmd *cobra.Command) (*Client, error) {
	var server string
	if f := cmd.Flag(ServerFlag); f != nil {
		server = f.Value.String()
	}

	cfg, err := Load(server)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}
