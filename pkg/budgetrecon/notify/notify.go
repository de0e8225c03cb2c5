// Package notify sends the status of a run to the people following it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier delivers a short Markdown message.
type Notifier interface {
	Notify(ctx context.Context, subject, text string) error
	Name() string
}

// Multi sends to every notifier. Failures are logged and joined; one
// failing channel does not stop the others.
type Multi struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
}

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, subject, text string) error {
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.Notify(ctx, subject, text); err != nil {
			m.Logger.Error().Err(err).Str("notifier", n.Name()).Msg("falha ao enviar notificação")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		m.Logger.Info().Str("notifier", n.Name()).Msg("notificação enviada")
	}
	return errors.Join(errs...)
}

// Status summarizes a run for StatusMessage.
type Status struct {
	// Done and Failed list the steps by name.
	Done   []string
	Failed []string
	// Published lists the files that reached every sink.
	Published []string
	// PublishOK is false when some publication failed.
	PublishOK bool
	Warnings  int
}

// Outcome of a run.
type Outcome int

const (
	Success Outcome = iota
	Partial
	Failure
)

// Outcome classifies s: any failed step is a failure, a failed publication
// with every step done is partial.
func (s Status) Outcome() Outcome {
	switch {
	case len(s.Failed) > 0:
		return Failure
	case !s.PublishOK:
		return Partial
	}
	return Success
}

// Subject is a one-line title for s.
func (s Status) Subject() string {
	switch s.Outcome() {
	case Failure:
		return "Execução com falhas"
	case Partial:
		return "Execução parcialmente concluída"
	}
	return "Execução concluída com sucesso"
}

// StatusMessage renders s as a Telegram Markdown message.
func StatusMessage(s Status) string {
	var b strings.Builder
	switch s.Outcome() {
	case Failure:
		b.WriteString("🚨 *Execução com falhas!*\n\n")
		fmt.Fprintf(&b, "Etapas com falha: %s\n", list(s.Failed))
		fmt.Fprintf(&b, "Etapas executadas: %s\n", list(s.Done))
		if s.PublishOK && len(s.Published) > 0 {
			fmt.Fprintf(&b, "Arquivos sincronizados com sucesso: %s", list(s.Published))
		} else {
			b.WriteString("Falha na sincronização dos arquivos.")
		}
	case Partial:
		b.WriteString("⚠️ *Execução parcialmente concluída!*\n\n")
		fmt.Fprintf(&b, "Etapas executadas: %s\n", list(s.Done))
		b.WriteString("Falha durante a sincronização dos arquivos.")
	default:
		b.WriteString("✅ *Execução concluída com sucesso!*\n\n")
		b.WriteString("Todas as etapas foram executadas e os seguintes arquivos foram sincronizados:\n")
		b.WriteString(list(s.Published))
	}
	if s.Warnings > 0 {
		fmt.Fprintf(&b, "\n\n%d alertas de conciliação, veja as abas de alertas.", s.Warnings)
	}
	return b.String()
}

func list(items []string) string {
	if len(items) == 0 {
		return "nenhum"
	}
	escaped := make([]string, len(items))
	for i, it := range items {
		escaped[i] = strings.ReplaceAll(it, "_", `\_`)
	}
	return strings.Join(escaped, ", ")
}
