package mirror

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"
)

// Stage names the pipeline step at which a message failed.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageDispatch Stage = "dispatch"
	StageMark     Stage = "mark"
	StageDelete   Stage = "delete"
)

// Failure records one per-message error for the run summary.
type Failure struct {
	UID     imap.UID
	Subject string
	Stage   Stage
	Reason  string
}

// Report aggregates the outcome of a single mirror run. Failed counts
// messages that were not mirrored (decode or dispatch failures); a delete
// failure shows up in Failures but leaves the message counted as mirrored,
// since the chat message was already accepted.
type Report struct {
	Fetched   int
	Succeeded int
	Failed    int
	Deleted   int
	Failures  []Failure
}

// Summary renders the report for logging or CLI output.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mirror run: fetched=%d succeeded=%d failed=%d deleted=%d",
		r.Fetched, r.Succeeded, r.Failed, r.Deleted)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n- uid=%d subject=%q stage=%s: %s", f.UID, f.Subject, f.Stage, f.Reason)
	}
	return b.String()
}
