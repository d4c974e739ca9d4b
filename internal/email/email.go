package email

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Domenick1991/flightbooking/internal/kafka"
)

// Sender writes passenger notifications to out. It stands in for a mail
// gateway and only understands passenger events.
type Sender struct {
	out io.Writer
}

func NewSender() *Sender {
	return &Sender{out: os.Stdout}
}

func NewSenderTo(out io.Writer) *Sender {
	return &Sender{out: out}
}

func (s *Sender) Send(ctx context.Context, event kafka.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Email == "" {
		return fmt.Errorf("event %s has no recipient", event.EventID)
	}

	var subject string
	switch event.Type {
	case kafka.EventPassengerReserved:
		subject = fmt.Sprintf("Your seat on flight %d is confirmed", event.FlightID)
	case kafka.EventPassengerCancelled:
		subject = fmt.Sprintf("Your reservation on flight %d was cancelled", event.FlightID)
	default:
		return fmt.Errorf("unsupported notification type %q", event.Type)
	}

	_, err := fmt.Fprintf(s.out, "send email to %s <%s>: %s\n", event.Name, event.Email, subject)
	return err
}
