package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/w-h-a/medichat/mailbox"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const me = "me"

type gmailMailbox struct {
	options mailbox.Options
	service *gmailapi.Service
	logger  *slog.Logger
}

func (m *gmailMailbox) Attachments(ctx context.Context) ([]mailbox.Attachment, error) {
	list, err := m.service.Users.Messages.List(me).Q(m.options.Query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var attachments []mailbox.Attachment

	for _, ref := range list.Messages {
		found, err := m.messageAttachments(ctx, ref.Id)
		if err != nil {
			// one unreadable message does not abort the inbox scan
			m.logger.Warn("failed to read message", "id", ref.Id, "error", err)
			continue
		}
		attachments = append(attachments, found...)
	}

	return attachments, nil
}

func (m *gmailMailbox) messageAttachments(ctx context.Context, id string) ([]mailbox.Attachment, error) {
	msg, err := m.service.Users.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	if msg.Payload == nil {
		return nil, nil
	}

	var attachments []mailbox.Attachment

	for _, part := range msg.Payload.Parts {
		if len(part.Filename) == 0 || part.Body == nil {
			continue
		}

		data := part.Body.Data
		if len(data) == 0 && len(part.Body.AttachmentId) > 0 {
			att, err := m.service.Users.Messages.Attachments.Get(me, id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				m.logger.Warn("failed to fetch attachment", "message", id, "filename", part.Filename, "error", err)
				continue
			}
			data = att.Data
		}

		if len(data) == 0 {
			continue
		}

		decoded, err := decodeBody(data)
		if err != nil {
			m.logger.Warn("failed to decode attachment", "message", id, "filename", part.Filename, "error", err)
			continue
		}

		attachments = append(attachments, mailbox.Attachment{
			Filename:  part.Filename,
			Data:      decoded,
			MessageId: id,
		})
	}

	return attachments, nil
}

// decodeBody handles the url-safe base64 the Gmail API uses, padded or not.
func decodeBody(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

func NewMailbox(opts ...mailbox.Option) mailbox.Mailbox {
	options := mailbox.NewOptions(opts...)

	m := &gmailMailbox{
		options: options,
		logger:  slog.Default().With("component", "gmail-mailbox"),
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: options.Token})

	service, err := gmailapi.NewService(
		context.Background(),
		option.WithTokenSource(src),
	)
	if err != nil {
		panic(err)
	}

	m.service = service

	return m
}
