package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- timestamp codec ---

func TestTimestamp_RoundTrip(t *testing.T) {
	orig := time.Date(2025, 3, 14, 9, 26, 53, 589*int(time.Millisecond), time.Local)

	s := FormatTimestamp(orig)
	assert.Equal(t, "2025-03-14 09:26:53.589", s)

	parsed, err := ParseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, orig.Equal(parsed))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("not a timestamp")
	assert.Error(t, err)
}

// --- MessageWrapper round trip ---

func TestMessageWrapper_RoundTrip(t *testing.T) {
	state := EditorState{
		Action:    ActionNavigate,
		FilePath:  "/home/u/proj/main.go",
		Line:      12,
		Column:    4,
		Source:    "A",
		IsActive:  true,
		Timestamp: "2025-03-14 09:26:53.589",
	}
	state.SetSelection(12, 0, 14, 8)

	orig := MessageWrapper{
		MessageID: "host-abc123-1-1700000000000",
		SenderID:  "host-abc123",
		Timestamp: 1700000000000,
		Payload:   state,
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded MessageWrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestMessageWrapper_RoundTrip_NoSelection(t *testing.T) {
	orig := MessageWrapper{
		MessageID: "host-abc123-2-1700000000001",
		SenderID:  "host-abc123",
		Timestamp: 1700000000001,
		Payload: EditorState{
			Action:    ActionClose,
			FilePath:  "/home/u/proj/main.go",
			Source:    "B",
			IsActive:  true,
			Timestamp: "2025-03-14 09:26:53.589",
		},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	// Absent selection coordinates stay absent on the wire.
	assert.NotContains(t, string(data), "selectionStartLine")
	assert.NotContains(t, string(data), "openedFiles")

	var decoded MessageWrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
	assert.False(t, decoded.Payload.HasSelection())
}

func TestMessageWrapper_WorkspaceSyncKeepsOrder(t *testing.T) {
	orig := MessageWrapper{
		MessageID: "host-abc123-3-1700000000002",
		SenderID:  "host-abc123",
		Payload: EditorState{
			Action:      ActionWorkspaceSync,
			IsActive:    true,
			Timestamp:   "2025-03-14 09:26:53.589",
			OpenedFiles: []string{"/b.go", "/a.go", "/c.go"},
		},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded MessageWrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"/b.go", "/a.go", "/c.go"}, decoded.Payload.OpenedFiles)
}

// --- HasSelection ---

func TestHasSelection_RequiresAllFour(t *testing.T) {
	var e EditorState
	assert.False(t, e.HasSelection())

	line := 3
	e.SelectionStartLine = &line
	e.SelectionStartColumn = &line
	e.SelectionEndLine = &line
	assert.False(t, e.HasSelection())

	e.SelectionEndColumn = &line
	assert.True(t, e.HasSelection())
}

// --- control frames ---

func TestHandshake_WireShape(t *testing.T) {
	hs := Handshake{
		Type:        TypeHandshake,
		ProjectPath: "/home/u/proj",
		IDEType:     "X",
		IDEName:     "X 1.0",
		Port:        3000,
	}

	data, err := json.Marshal(hs)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"HANDSHAKE","projectPath":"/home/u/proj","ideType":"X","ideName":"X 1.0","port":3000}`,
		string(data),
	)
}
