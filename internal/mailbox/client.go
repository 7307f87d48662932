// Package mailbox provides the IMAP source side of the mirror: it lists
// unread candidate mails and marks or deletes mirrored ones.
package mailbox

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/fputz/mailmirror/internal/mirror"
)

// Client encapsulates an IMAP connection. Candidates are searched as unseen
// and fetched with peek, so a mail only leaves the candidate set once the
// pipeline marks it mirrored or deletes it. Failed mails stay unseen for the
// next run.
type Client struct {
	Addr      string
	Username  string
	Password  string
	Mailbox   string
	TLSConfig *tls.Config

	client *imapclient.Client
}

// Connect establishes the IMAP connection, logs in, and selects the mailbox.
func (c *Client) Connect() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return errors.New("IMAP credentials are required")
	}
	if strings.TrimSpace(c.Mailbox) == "" {
		c.Mailbox = "INBOX"
	}

	var options *imapclient.Options
	if c.TLSConfig != nil {
		options = &imapclient.Options{TLSConfig: c.TLSConfig}
	}

	client, err := imapclient.DialTLS(c.Addr, options)
	if err != nil {
		return err
	}

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return err
	}

	if _, err := client.Select(c.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return err
	}

	c.client = client
	return nil
}

// Close logs out and clears the connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout().Wait()
	c.client = nil
	return err
}

// ListCandidates returns the full set of unseen messages, fully materialized.
// A message whose body cannot be decoded is returned with Err set so the
// pipeline can record it without aborting the run.
func (c *Client) ListCandidates(ctx context.Context) ([]mirror.Message, error) {
	if c.client == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	data, err := c.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.Wrap(err, "searching unseen messages")
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := c.client.Fetch(uidSet, fetchOptions)
	var messages []mirror.Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			_ = fetchCmd.Close()
			return nil, errors.Wrap(err, "collecting message data")
		}

		messages = append(messages, buildMessage(buf, bodySection))
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(err, "fetching messages")
	}

	return messages, nil
}

// MarkMirrored flags the message as seen so it is not a candidate on the
// next run.
func (c *Client) MarkMirrored(ctx context.Context, uid imap.UID) error {
	if c.client == nil {
		return errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	return c.client.Store(imap.UIDSetNum(uid), &store, nil).Close()
}

// Delete marks the message as deleted and expunges it.
func (c *Client) Delete(ctx context.Context, uid imap.UID) error {
	if c.client == nil {
		return errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(uid)

	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := c.client.Store(uidSet, &store, nil).Close(); err != nil {
		return err
	}

	if c.client.Caps().Has(imap.CapUIDPlus) {
		_, err := c.client.UIDExpunge(uidSet).Collect()
		return err
	}

	_, err := c.client.Expunge().Collect()
	return err
}

// buildMessage converts a fetched buffer into a pipeline message.
func buildMessage(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) mirror.Message {
	msg := mirror.Message{UID: buf.UID}

	if buf.Envelope != nil {
		msg.Subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				msg.Sender = from.Name
			} else {
				msg.Sender = from.Addr()
			}
		}
	}

	raw := buf.FindBodySection(section)
	if raw == nil {
		msg.Err = errors.New("message has no body section")
		return msg
	}

	body, err := extractBody(raw)
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Body = body

	return msg
}
