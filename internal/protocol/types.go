package protocol

import "time"

// Action is the operation an EditorState asks the receiver to mirror.
type Action string

const (
	ActionOpen          Action = "OPEN"
	ActionClose         Action = "CLOSE"
	ActionNavigate      Action = "NAVIGATE"
	ActionWorkspaceSync Action = "WORKSPACE_SYNC"
)

// Control frame types. A frame whose top-level "type" field is absent
// is a sync message (a MessageWrapper).
const (
	TypeHandshake    = "HANDSHAKE"
	TypeHandshakeAck = "HANDSHAKE_ACK"
	TypeHeartbeat    = "HEARTBEAT"
	TypeHeartbeatAck = "HEARTBEAT_ACK"
)

// timestampLayout is the wall-clock format carried in EditorState,
// millisecond resolution.
const timestampLayout = "2006-01-02 15:04:05.000"

// EditorState is the wire payload: one cursor/tab event from the side
// whose window is focused. Caret and selection coordinates are
// zero-based; anything human-facing adds +1.
type EditorState struct {
	Action   Action `json:"action"`
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`

	// Source is the originating IDE family tag; used only for logging.
	Source string `json:"source"`

	// IsActive reports whether the sending window was focused at event
	// time. Inactive states are observational and must not be applied.
	IsActive bool `json:"isActive"`

	// Timestamp is wall clock in "YYYY-MM-DD HH:MM:SS.mmm".
	Timestamp string `json:"timestamp"`

	// OpenedFiles is present iff Action is WORKSPACE_SYNC: the sender's
	// ordered set of open tabs.
	OpenedFiles []string `json:"openedFiles,omitempty"`

	// Selection corners. All four are present together iff a non-empty
	// selection exists.
	SelectionStartLine   *int `json:"selectionStartLine,omitempty"`
	SelectionStartColumn *int `json:"selectionStartColumn,omitempty"`
	SelectionEndLine     *int `json:"selectionEndLine,omitempty"`
	SelectionEndColumn   *int `json:"selectionEndColumn,omitempty"`
}

// HasSelection reports whether all four selection coordinates are set.
func (e *EditorState) HasSelection() bool {
	return e.SelectionStartLine != nil &&
		e.SelectionStartColumn != nil &&
		e.SelectionEndLine != nil &&
		e.SelectionEndColumn != nil
}

// SetSelection populates the four selection fields.
func (e *EditorState) SetSelection(startLine, startCol, endLine, endCol int) {
	e.SelectionStartLine = &startLine
	e.SelectionStartColumn = &startCol
	e.SelectionEndLine = &endLine
	e.SelectionEndColumn = &endCol
}

// MessageWrapper is the envelope around every sync message. The shape
// (sender + unique message ID) predates the TCP transport: it kept a
// UDP multicast variant loop-free and still backs the dedup table.
type MessageWrapper struct {
	MessageID string      `json:"messageId"`
	SenderID  string      `json:"senderId"`
	Timestamp int64       `json:"timestamp"`
	Payload   EditorState `json:"payload"`
}

// Handshake is sent by the listener as soon as it accepts a socket.
type Handshake struct {
	Type        string `json:"type"`
	ProjectPath string `json:"projectPath"`
	IDEType     string `json:"ideType"`
	IDEName     string `json:"ideName"`
	Port        int    `json:"port"`
}

// HandshakeAck is the scanner's reply when the project paths match.
type HandshakeAck struct {
	Type        string `json:"type"`
	ProjectPath string `json:"projectPath"`
	IDEType     string `json:"ideType"`
	IDEName     string `json:"ideName"`
}

// Heartbeat is emitted every two seconds by each side once connected.
type Heartbeat struct {
	Type        string `json:"type"`
	Timestamp   int64  `json:"timestamp"`
	ProjectPath string `json:"projectPath"`
}

// HeartbeatAck echoes the peer's heartbeat timestamp.
type HeartbeatAck struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// FormatTimestamp renders t in the wire wall-clock format.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ParseTimestamp parses the wire wall-clock format in local time, which
// is what the sender used; both peers run on the same host.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.Local)
}
