package mirror

import (
	"context"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/pkg/errors"

	"github.com/fputz/mailmirror/internal/config"
	"github.com/fputz/mailmirror/internal/transform"
)

// Fallbacks used when a mail arrives without a usable subject or body.
const (
	noTopicFallback = "(no topic)"
	noBodyFallback  = "(No email body)"
)

// Message is one candidate mail for the duration of a run. Err carries a
// per-message decode failure; such a message is reported as failed and left
// untouched in the mailbox.
type Message struct {
	UID     imap.UID
	Sender  string
	Subject string
	Body    string
	Err     error
}

// MailboxClient is the source side of the bridge. ListCandidates must return
// the full candidate set once. Mirrored messages are removed from the
// candidate set via Delete or MarkMirrored; failed messages are left
// untouched so the next run retries them.
type MailboxClient interface {
	ListCandidates(ctx context.Context) ([]Message, error)
	MarkMirrored(ctx context.Context, uid imap.UID) error
	Delete(ctx context.Context, uid imap.UID) error
}

// ChatClient is the destination side. Post returns nil only when the service
// has durably accepted the message.
type ChatClient interface {
	Post(ctx context.Context, topic, content string) error
}

// Runner drives one mirror run: fetch, transform, dispatch, optional delete.
type Runner struct {
	mailbox  MailboxClient
	chat     ChatClient
	cfg      config.Config
	template *transform.Template
	logger   *slog.Logger
	dryRun   bool
}

type Option func(*Runner)

func WithMailbox(c MailboxClient) Option {
	return func(r *Runner) {
		r.mailbox = c
	}
}

func WithChat(c ChatClient) Option {
	return func(r *Runner) {
		r.chat = c
	}
}

func WithConfig(cfg config.Config) Option {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

func New(opts ...Option) (*Runner, error) {
	var runner Runner
	for _, opt := range opts {
		opt(&runner)
	}

	if runner.mailbox == nil {
		return nil, errors.New("requires mailbox client")
	}
	if runner.chat == nil {
		return nil, errors.New("requires chat client")
	}
	if runner.logger == nil {
		return nil, errors.New("requires logger")
	}

	template, err := runner.cfg.Template()
	if err != nil {
		return nil, err
	}
	runner.template = template

	return &runner, nil
}

// Run processes the full candidate set sequentially. Per-message failures are
// recorded in the Report and never abort the run; only a fetch-level failure
// returns an error. A message is deleted only after its dispatch was
// confirmed, and a failed delete never rolls back the mirror.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	candidates, err := r.mailbox.ListCandidates(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "listing candidate mails")
	}

	report := Report{Fetched: len(candidates)}
	r.logger.Info("fetched candidate mails", "count", len(candidates))

	for _, msg := range candidates {
		r.process(ctx, msg, &report)
	}

	return report, nil
}

func (r *Runner) process(ctx context.Context, msg Message, report *Report) {
	if msg.Err != nil {
		r.logger.Error("failed to decode mail", "uid", msg.UID, "error", msg.Err)
		report.Failed++
		report.Failures = append(report.Failures, Failure{
			UID:     msg.UID,
			Subject: msg.Subject,
			Stage:   StageDecode,
			Reason:  msg.Err.Error(),
		})
		return
	}

	topic, content := r.render(msg)
	r.logger.Debug("mirroring mail", "uid", msg.UID, "topic", topic)

	if r.dryRun {
		r.logger.Info("dry run: would mirror mail", "uid", msg.UID, "topic", topic)
		report.Succeeded++
		return
	}

	if err := r.chat.Post(ctx, topic, content); err != nil {
		r.logger.Error("failed to dispatch mail", "uid", msg.UID, "topic", topic, "error", err)
		report.Failed++
		report.Failures = append(report.Failures, Failure{
			UID:     msg.UID,
			Subject: msg.Subject,
			Stage:   StageDispatch,
			Reason:  err.Error(),
		})
		return
	}

	report.Succeeded++
	r.logger.Info("mirrored mail", "uid", msg.UID, "topic", topic)

	if !r.cfg.RemoveMirroredMails {
		if err := r.mailbox.MarkMirrored(ctx, msg.UID); err != nil {
			// The chat message is already out; only the read marker failed.
			// The mail may be mirrored again next run.
			r.logger.Error("failed to mark mirrored mail", "uid", msg.UID, "error", err)
			report.Failures = append(report.Failures, Failure{
				UID:     msg.UID,
				Subject: msg.Subject,
				Stage:   StageMark,
				Reason:  err.Error(),
			})
		}
		return
	}

	if err := r.mailbox.Delete(ctx, msg.UID); err != nil {
		// The chat message is already out; only cleanup failed. The mail
		// stays in the mailbox and may be mirrored again next run.
		r.logger.Error("failed to delete mirrored mail", "uid", msg.UID, "error", err)
		report.Failures = append(report.Failures, Failure{
			UID:     msg.UID,
			Subject: msg.Subject,
			Stage:   StageDelete,
			Reason:  err.Error(),
		})
		return
	}

	report.Deleted++
}

// render applies the subject and body rules and renders the chat payload.
func (r *Runner) render(msg Message) (topic, content string) {
	topic = transform.NormalizeSubject(msg.Subject, r.cfg.UnwantedSubjectPrefixes)
	if topic == "" {
		topic = noTopicFallback
	}

	body := transform.StripFooter(msg.Body, r.cfg.FooterFilterKeywords)
	// Zulip rejects NUL characters.
	body = strings.ReplaceAll(body, "\x00", "")
	body = strings.TrimSpace(body)
	if body == "" {
		body = noBodyFallback
	}
	if r.cfg.QuoteBodyEnabled() {
		body = transform.QuoteLines(body)
	}

	return topic, r.template.Render(msg.Sender, body)
}
