package runner

import (
	"testing"

	"github.com/calmren/atelier/internal/state"
)

func TestParseComposePS(t *testing.T) {
	out := `{"Service":"db","Image":"postgres:16","State":"running","Publishers":[{"TargetPort":5432,"PublishedPort":5433,"Protocol":"tcp"}]}
{"Service":"cache","Image":"redis:7","State":"exited","Publishers":[{"TargetPort":6379,"PublishedPort":0}]}
not json
`
	services := ParseComposePS(out)
	if len(services) != 2 {
		t.Fatalf("len(services) = %d, want 2", len(services))
	}
	db := services[0]
	if db.Name != "db" || db.Image != "postgres:16" || db.Status != state.ServiceRunning {
		t.Fatalf("db = %+v", db)
	}
	if len(db.Ports) != 1 || db.Ports[0].Host != 5433 || db.Ports[0].Container != 5432 {
		t.Fatalf("db ports = %+v", db.Ports)
	}
	cache := services[1]
	if cache.Status != state.ServiceStopped {
		t.Fatalf("cache status = %q", cache.Status)
	}
	// Unpublished ports are dropped.
	if len(cache.Ports) != 0 {
		t.Fatalf("cache ports = %+v", cache.Ports)
	}
}

func TestParseComposePSEmpty(t *testing.T) {
	if got := ParseComposePS(""); len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}

func TestComposeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want state.ServiceStatus
	}{
		{"running", state.ServiceRunning},
		{"Running", state.ServiceRunning},
		{"restarting", state.ServiceStarting},
		{"created", state.ServiceStarting},
		{"removing", state.ServiceStopping},
		{"dead", state.ServiceError},
		{"exited", state.ServiceStopped},
		{"paused", state.ServiceStopped},
	}
	for _, tt := range tests {
		if got := composeStatus(tt.in); got != tt.want {
			t.Errorf("composeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePortConflict(t *testing.T) {
	tests := []struct {
		name   string
		output string
		port   int
		ok     bool
	}{
		{
			name:   "allocated",
			output: "Error response from daemon: Bind for 0.0.0.0:5432 failed: port is already allocated",
			port:   5432,
			ok:     true,
		},
		{
			name:   "in use",
			output: "listen tcp 127.0.0.1:8080: bind: address already in use",
			port:   8080,
			ok:     true,
		},
		{
			name:   "unrelated failure",
			output: "no such service: db",
			ok:     false,
		},
		{
			name: "conflict line among noise",
			output: "Creating network...\n" +
				"Bind for 0.0.0.0:3000 failed: port is already allocated\n",
			port: 3000,
			ok:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, ok := ParsePortConflict(tt.output)
			if ok != tt.ok || port != tt.port {
				t.Fatalf("ParsePortConflict = (%d, %v), want (%d, %v)", port, ok, tt.port, tt.ok)
			}
		})
	}
}
