package ports

import "context"

// Mail is a single outbound message.
type Mail struct {
	Recipient string
	Subject   string
	HTML      string
}

// Notifier delivers mail to customers.
type Notifier interface {
	SendMail(ctx context.Context, mail Mail) error
}
