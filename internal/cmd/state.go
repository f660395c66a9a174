package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calmren/atelier/internal/ipc"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the daemon's state tree",
	Long: `Print the daemon's current state tree as JSON.

Connects to the running daemon over its unix socket and requests a
snapshot. Useful for debugging what the renderer sees.`,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	c, err := dialDaemon()
	if err != nil {
		return err
	}
	defer c.close()

	resp, err := c.roundTrip(ipc.Request{ID: "state-1", Method: "getState"})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp.State, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
