package runner

import "github.com/google/uuid"

// NewInvocationID returns a fresh identifier suitable for correlating a
// single runTask/emitEvent call across logs, journals and (if a tunnel
// is involved) the wire protocol that carries it out of process.
func NewInvocationID() string {
	return uuid.NewString()
}

// InvocationIDKey is the journal slot RunTaskByDef stamps with a fresh
// NewInvocationID the first time a journal is seen, so every nested
// runTask call sharing that journal logs under the same correlation id
// (§10.5 Identifiers).
var InvocationIDKey = CreateKey[string]("runner.invocationID")
