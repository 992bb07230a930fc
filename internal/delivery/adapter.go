// internal/delivery/adapter.go
package delivery

import "context"

// Result is the three-way delivery outcome. Deferred is not an error: it
// means a human appears present on the messaging surface, try again later.
type Result string

const (
	ResultSent     Result = "sent"
	ResultFailed   Result = "failed"
	ResultDeferred Result = "deferred"
)

// Outcome is what an Adapter must always resolve to. Reason is set only for
// failures.
type Outcome struct {
	Result Result `json:"outcome"`
	Reason string `json:"reason,omitempty"`
}

func Sent() Outcome                { return Outcome{Result: ResultSent} }
func Failed(reason string) Outcome { return Outcome{Result: ResultFailed, Reason: reason} }
func Deferred() Outcome            { return Outcome{Result: ResultDeferred} }

// Request identifies one delivery attempt.
type Request struct {
	RecordID   string `json:"record_id"`
	FriendID   string `json:"friend_id"`
	FriendName string `json:"friend_name"`
	Message    string `json:"message"`
}

// Adapter hands a rendered message to the delivery surface and waits for
// exactly one outcome. Implementations own their internal timeouts and must
// never hang; they should also reject concurrent calls defensively, even
// though the scheduler already serializes the delivery path.
type Adapter interface {
	Deliver(ctx context.Context, req Request) (Outcome, error)
}
