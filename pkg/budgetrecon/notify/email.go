package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

// Email sends the status by SMTP.
type Email struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

func (e *Email) Name() string { return "email" }

// Notify sends an HTML mail. Markdown emphasis is dropped.
func (e *Email) Notify(ctx context.Context, subject, text string) error {
	if e.Host == "" || len(e.To) == 0 {
		return fmt.Errorf("email: %w", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d := gomail.NewDialer(e.Host, e.Port, e.Username, e.Password)
	if err := d.DialAndSend(e.message(subject, text)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (e *Email) message(subject, text string) *gomail.Message {
	from := e.From
	if from == "" {
		from = e.Username
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", e.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", stripMarkdown(text))
	m.AddAlternative("text/html", htmlBody(text))
	return m
}

func stripMarkdown(text string) string {
	return strings.NewReplacer("*", "", `\_`, "_").Replace(text)
}

func htmlBody(text string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: sans-serif; line-height: 1.6; color: #333;">`)
	for _, line := range strings.Split(stripMarkdown(text), "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}
	b.WriteString("</body></html>")
	return b.String()
}
