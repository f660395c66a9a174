package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppState(t *testing.T) {
	s := NewAppState()

	assert.Empty(t, s.Projects)
	assert.Equal(t, -1, s.ActiveProjectIndex)
	assert.Nil(t, s.ActiveProject())
	assert.Nil(t, s.ActiveWorktree())
	assert.Equal(t, "dark", s.Settings.Theme)
	assert.False(t, s.Docker.Checked)
}

func TestProjectNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/proj", "proj"},
		{"/tmp/proj/", "proj"},
		{"/home/dev/my-app", "my-app"},
		{"relative/dir", "dir"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProjectNameFromPath(tt.path), "path %q", tt.path)
	}
}

func TestNewProject(t *testing.T) {
	p := NewProject("/tmp/proj")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "proj", p.Name)
	require.Len(t, p.Worktrees, 1)
	assert.True(t, p.Worktrees[0].IsMain)
	assert.Equal(t, "/tmp/proj", p.Worktrees[0].Path)
	assert.Equal(t, 0, p.ActiveWorktreeIndex)
	assert.NotNil(t, p.ActiveWorktree())
}

func TestTouchRecent(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("deduplicates and moves to front", func(t *testing.T) {
		s := NewAppState()
		s.TouchRecent("/a", now)
		s.TouchRecent("/b", now.Add(time.Minute))
		s.TouchRecent("/a", now.Add(2*time.Minute))

		require.Len(t, s.RecentProjects, 2)
		assert.Equal(t, "/a", s.RecentProjects[0].Path)
		assert.Equal(t, "/b", s.RecentProjects[1].Path)
		assert.Equal(t, now.Add(2*time.Minute), s.RecentProjects[0].LastOpened)
	})

	t.Run("caps at MaxRecentProjects", func(t *testing.T) {
		s := NewAppState()
		for i := 0; i < MaxRecentProjects+5; i++ {
			s.TouchRecent("/p"+string(rune('a'+i)), now.Add(time.Duration(i)*time.Minute))
		}
		assert.Len(t, s.RecentProjects, MaxRecentProjects)
		// Most recent first
		assert.Equal(t, "/p"+string(rune('a'+MaxRecentProjects+4)), s.RecentProjects[0].Path)
	})
}

func TestProjectIndexByPath(t *testing.T) {
	s := NewAppState()
	s.Projects = append(s.Projects, NewProject("/a"), NewProject("/b"))

	assert.Equal(t, 0, s.ProjectIndexByPath("/a"))
	assert.Equal(t, 1, s.ProjectIndexByPath("/b"))
	assert.Equal(t, -1, s.ProjectIndexByPath("/c"))
}

func TestAppendDevLog_Cap(t *testing.T) {
	s := NewAppState()
	for i := 0; i < MaxDevLogs+10; i++ {
		s.AppendDevLog(DevLogEntry{ActionType: "OpenProject"})
	}
	assert.Len(t, s.DevLogs, MaxDevLogs)
}

func TestChatState_LastAssistantMessage(t *testing.T) {
	c := NewChatState()
	assert.Nil(t, c.LastAssistantMessage())

	c.Messages = append(c.Messages, ChatMessage{Role: RoleUser, Content: "hi"})
	assert.Nil(t, c.LastAssistantMessage())

	c.Messages = append(c.Messages, ChatMessage{Role: RoleAssistant, Content: "he"})
	msg := c.LastAssistantMessage()
	require.NotNil(t, msg)
	msg.Content += "llo"
	assert.Equal(t, "hello", c.Messages[1].Content)
}

func TestRingBufferCaps(t *testing.T) {
	t.Run("chat debug logs", func(t *testing.T) {
		c := NewChatState()
		for i := 0; i < MaxDebugLogs+3; i++ {
			c.AppendDebugLog("line")
		}
		assert.Len(t, c.DebugLogs, MaxDebugLogs)
	})

	t.Run("mcp logs", func(t *testing.T) {
		m := NewMcpState()
		for i := 0; i < MaxMcpLogs+3; i++ {
			m.AppendLog(McpLogEntry{Direction: McpLogIn, Message: "msg"})
		}
		assert.Len(t, m.Logs, MaxMcpLogs)
	})

	t.Run("docker logs", func(t *testing.T) {
		d := NewDockerState()
		lines := make([]string, MaxDockerLogs+50)
		for i := range lines {
			lines[i] = "log"
		}
		d.SetLogs(lines)
		assert.Len(t, d.Logs, MaxDockerLogs)
	})
}

// populatedState builds a state carrying at least one project, worktree,
// chat message, change, and review session for round-trip coverage.
func populatedState(t *testing.T) *AppState {
	t.Helper()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s := NewAppState()
	p := NewProject("/tmp/proj")
	wt := p.Worktrees[0]
	wt.Branch = "main"

	wt.Chat.Messages = append(wt.Chat.Messages,
		ChatMessage{ID: "m1", Role: RoleUser, Content: "hello", CreatedAt: now},
		ChatMessage{ID: "m2", Role: RoleAssistant, Content: "hi there", CreatedAt: now},
	)

	ch := NewChange("add-auth", "add authentication", now)
	ch.Status = ChangePlanning
	ch.StreamingOutput = "partial proposal text"
	wt.Changes.Changes = append(wt.Changes.Changes, ch)

	rs := NewReviewSession(ch.ID, ReviewContent{
		ContentType: "proposal",
		Content:     "# Proposal",
		FileChanges: []FileChange{{Path: "auth.go", Kind: "added"}},
	}, now)
	rs.AddComment("auth.go", "looks wrong", "dev", now)
	wt.Tasks.ReviewGate.Sessions = append(wt.Tasks.ReviewGate.Sessions, rs)
	wt.Tasks.ReviewGate.ActiveSessionID = rs.ID

	wt.Tasks.Commands = []JustCommand{{Name: "build", Description: "compile"}}
	wt.Tasks.Runs["build"] = &TaskRun{Status: TaskRunning, Output: []string{"compiling..."}, StartedAt: now}

	wt.Tasks.Constitution.Workflow = NewConstitutionWorkflow()
	wt.Tasks.Constitution.Workflow.Answers["tech_stack"] = "go"
	wt.Tasks.Constitution.Workflow.CurrentQuestion = 1

	s.Projects = append(s.Projects, p)
	s.ActiveProjectIndex = 0
	s.TouchRecent("/tmp/proj", now)
	s.Notifications = append(s.Notifications, NewNotification(NotifyInfo, "project opened", now))
	s.Docker.Services = []DockerService{{Name: "db", Status: ServiceRunning, Ports: []PortMapping{{Host: 5432, Container: 5432}}}}
	return s
}

func TestSerializeRoundTrip(t *testing.T) {
	original := populatedState(t)

	data, err := original.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	// Compare via a second encode: equality of canonical wire form.
	data2, err := restored.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))

	assert.Equal(t, original.ActiveProjectIndex, restored.ActiveProjectIndex)
	require.Len(t, restored.Projects, 1)
	assert.Equal(t, original.Projects[0].ID, restored.Projects[0].ID)
	require.Len(t, restored.Projects[0].Worktrees, 1)
	assert.Len(t, restored.Projects[0].Worktrees[0].Chat.Messages, 2)
	assert.Len(t, restored.Projects[0].Worktrees[0].Changes.Changes, 1)
	assert.Len(t, restored.Projects[0].Worktrees[0].Tasks.ReviewGate.Sessions, 1)
}

func TestDeserialize_UnknownFieldsIgnored(t *testing.T) {
	data := []byte(`{"projects":[],"active_project_index":-1,"future_field":{"x":1}}`)

	s, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, -1, s.ActiveProjectIndex)
	assert.NotNil(t, s.Projects)
}

func TestClone_Independence(t *testing.T) {
	original := populatedState(t)
	cp := original.Clone()

	// Mutate the clone in every nested collection.
	cp.Projects[0].Name = "changed"
	cp.Projects[0].Worktrees[0].Chat.Messages[0].Content = "changed"
	cp.Projects[0].Worktrees[0].Tasks.Runs["build"].Output[0] = "changed"
	cp.Projects[0].Worktrees[0].Changes.Changes[0].Status = ChangeFailed
	cp.Projects[0].Worktrees[0].Tasks.ReviewGate.Sessions[0].Comments[0].Content = "changed"
	cp.Projects[0].Worktrees[0].Tasks.Constitution.Workflow.Answers["tech_stack"] = "changed"
	cp.RecentProjects[0].Path = "/changed"
	cp.Docker.Services[0].Status = ServiceError
	cp.Docker.PortOverrides["db"] = 9999

	assert.Equal(t, "proj", original.Projects[0].Name)
	assert.Equal(t, "hello", original.Projects[0].Worktrees[0].Chat.Messages[0].Content)
	assert.Equal(t, "compiling...", original.Projects[0].Worktrees[0].Tasks.Runs["build"].Output[0])
	assert.Equal(t, ChangePlanning, original.Projects[0].Worktrees[0].Changes.Changes[0].Status)
	assert.Equal(t, "looks wrong", original.Projects[0].Worktrees[0].Tasks.ReviewGate.Sessions[0].Comments[0].Content)
	assert.Equal(t, "go", original.Projects[0].Worktrees[0].Tasks.Constitution.Workflow.Answers["tech_stack"])
	assert.Equal(t, "/tmp/proj", original.RecentProjects[0].Path)
	assert.Equal(t, ServiceRunning, original.Docker.Services[0].Status)
	assert.NotContains(t, original.Docker.PortOverrides, "db")
}

func TestClone_NilA2UI(t *testing.T) {
	s := NewAppState()
	cp := s.Clone()
	assert.Nil(t, cp.A2UI)
}
