package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/ipc"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <type> [payload]",
	Short: "Dispatch an action to the daemon",
	Long: `Dispatch a single action to the running daemon.

The payload is a JSON object matching the action's fields; it defaults
to {} when omitted.

Examples:
  atelier dispatch OpenProject '{"path": "/home/me/src/demo"}'
  atelier dispatch SwitchWorktree '{"index": 1}'
  atelier dispatch RefreshWorktrees`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	payload := "{}"
	if len(args) == 2 {
		payload = args[1]
	}
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("payload is not valid JSON")
	}

	c, err := dialDaemon()
	if err != nil {
		return err
	}
	defer c.close()

	resp, err := c.roundTrip(ipc.Request{
		ID:     "dispatch-1",
		Method: "dispatch",
		Action: &action.Envelope{Type: args[0], Payload: json.RawMessage(payload)},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "committed at seq %d\n", resp.Seq)
	return nil
}
