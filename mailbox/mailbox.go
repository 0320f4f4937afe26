package mailbox

import "context"

// Mailbox discovers candidate messages in a user's inbox and returns their
// attachments with transport encoding already decoded.
type Mailbox interface {
	Attachments(ctx context.Context) ([]Attachment, error)
}

type Attachment struct {
	Filename  string
	Data      []byte
	MessageId string
}
