package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/calmren/atelier/internal/config"
	"github.com/calmren/atelier/internal/ipc"
	"github.com/calmren/atelier/internal/persist"
)

// client is a one-shot connection to a running daemon, used by the
// inspection commands.
type client struct {
	conn net.Conn
	sc   *bufio.Scanner
	enc  *json.Encoder
}

// dialDaemon connects to the daemon socket resolved from the loaded config.
func dialDaemon() (*client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dataDir, err := cfg.Paths.ResolveDataDir(persist.DataDir)
	if err != nil {
		return nil, err
	}
	path := cfg.Server.ResolveSocketPath(dataDir)

	conn, err := net.DialTimeout("unix", path, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s (is `atelier serve` running?): %w", path, err)
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 8<<20)
	return &client{conn: conn, sc: sc, enc: json.NewEncoder(conn)}, nil
}

func (c *client) close() {
	_ = c.conn.Close()
}

// roundTrip sends one request and reads frames until the matching response
// arrives, skipping any push frames in between.
func (c *client) roundTrip(req ipc.Request) (*ipc.Response, error) {
	if err := c.enc.Encode(req); err != nil {
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for c.sc.Scan() {
		var resp ipc.Response
		if err := json.Unmarshal(c.sc.Bytes(), &resp); err != nil {
			continue
		}
		if resp.ID != req.ID {
			continue
		}
		if !resp.OK && resp.Error != nil {
			return &resp, fmt.Errorf("%s: %s", resp.Error.Kind, resp.Error.Message)
		}
		return &resp, nil
	}
	if err := c.sc.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("connection closed before response")
}
