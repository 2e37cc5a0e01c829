package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/tandemedit/tandem/internal/protocol"
)

// projectHashLen is the number of hex characters of the project path
// MD5 kept in the instance ID. Enough to tell two projects on the same
// host apart without bloating every message ID.
const projectHashLen = 6

// Identity derives the stable per-instance ID and mints monotonic
// message IDs. The instance ID is immutable after construction; two
// instances on one host only collide if they share hostname, project
// and PID, so separate processes never collide, while two cores in one
// process on the same project path do.
type Identity struct {
	instanceID string
	seq        atomic.Int64
}

// New builds the identity for this process:
// "{hostname}-{md5(projectPath)[0:6]}-{pid}".
func New(projectPath string) *Identity {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "tandem"
	}

	sum := md5.Sum([]byte(projectPath))
	hash := hex.EncodeToString(sum[:])[:projectHashLen]

	return &Identity{
		instanceID: fmt.Sprintf("%s-%s-%d", hostname, hash, os.Getpid()),
	}
}

// InstanceID returns the stable ID for this process.
func (i *Identity) InstanceID() string {
	return i.instanceID
}

// NextMessageID mints "{instanceId}-{sequence}-{epochMs}". Sequence
// numbers are strictly increasing for the lifetime of the process.
func (i *Identity) NextMessageID() string {
	return fmt.Sprintf("%s-%d-%d", i.instanceID, i.seq.Add(1), time.Now().UnixMilli())
}

// Wrap envelopes an editor state for the wire, stamping a fresh message
// ID, this instance as the sender, and the current epoch milliseconds.
func (i *Identity) Wrap(state protocol.EditorState) protocol.MessageWrapper {
	return protocol.MessageWrapper{
		MessageID: i.NextMessageID(),
		SenderID:  i.instanceID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   state,
	}
}
