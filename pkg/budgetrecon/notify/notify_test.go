package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		outcome  Outcome
		contains []string
	}{
		{
			name:     "success",
			status:   Status{Done: []string{"comparativo", "itracker"}, Published: []string{"contagem_por_cliente.xlsx"}, PublishOK: true},
			outcome:  Success,
			contains: []string{"✅", "contagem\\_por\\_cliente.xlsx"},
		},
		{
			name:     "partial",
			status:   Status{Done: []string{"comparativo"}, PublishOK: false},
			outcome:  Partial,
			contains: []string{"⚠️", "Etapas executadas: comparativo", "Falha durante a sincronização"},
		},
		{
			name:     "failure",
			status:   Status{Done: []string{"comparativo"}, Failed: []string{"itracker"}, PublishOK: true, Published: []string{"a.xlsx"}},
			outcome:  Failure,
			contains: []string{"🚨", "Etapas com falha: itracker", "Arquivos sincronizados com sucesso: a.xlsx"},
		},
		{
			name:     "failure without files",
			status:   Status{Failed: []string{"comparativo"}},
			outcome:  Failure,
			contains: []string{"Etapas executadas: nenhum", "Falha na sincronização dos arquivos."},
		},
		{
			name:     "warnings",
			status:   Status{PublishOK: true, Warnings: 3},
			outcome:  Success,
			contains: []string{"3 alertas de conciliação"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Outcome(); got != tt.outcome {
				t.Errorf("Expected outcome %d, got %d", tt.outcome, got)
			}
			msg := StatusMessage(tt.status)
			for _, c := range tt.contains {
				if !strings.Contains(msg, c) {
					t.Errorf("Expected message to contain %q, got %q", c, msg)
				}
			}
		})
	}
}

func TestTelegramNotify(t *testing.T) {
	var got sendMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := &Telegram{Token: "123:abc", ChatID: "42", BaseURL: srv.URL + "/", Client: srv.Client()}
	if err := tg.Notify(context.Background(), "ignored", "*ok*"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("Unexpected path %q", path)
	}
	if got.ChatID != "42" || got.Text != "*ok*" || got.ParseMode != "Markdown" {
		t.Errorf("Unexpected payload %+v", got)
	}
}

func TestTelegramErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := &Telegram{Token: "t", ChatID: "1", BaseURL: srv.URL, Client: srv.Client()}
	err := tg.Notify(context.Background(), "", "x")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Expected the API description in the error, got %v", err)
	}

	if err := (&Telegram{}).Notify(context.Background(), "", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

type fakeNotifier struct {
	name string
	err  error
	sent []string
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, subject, text string) error {
	f.sent = append(f.sent, subject)
	return f.err
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	first := &fakeNotifier{name: "first", err: boom}
	second := &fakeNotifier{name: "second"}

	m := Multi{Notifiers: []Notifier{first, second}, Logger: zerolog.Nop()}
	err := m.Notify(context.Background(), "s", "t")
	if !errors.Is(err, boom) {
		t.Errorf("Expected joined error to wrap boom, got %v", err)
	}
	if len(second.sent) != 1 {
		t.Errorf("Expected the second notifier to run, got %v", second.sent)
	}
}

func TestEmailMessage(t *testing.T) {
	e := &Email{Host: "smtp.example.com", Port: 587, Username: "bot@example.com", To: []string{"a@example.com", "b@example.com"}}
	m := e.message("Status", "*ok* contagem\\_por\\_cliente.xlsx")

	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "bot@example.com" {
		t.Errorf("Expected From to default to the username, got %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 2 {
		t.Errorf("Expected two recipients, got %v", got)
	}
	if got := stripMarkdown("*ok* contagem\\_por\\_cliente.xlsx"); got != "ok contagem_por_cliente.xlsx" {
		t.Errorf("Unexpected plain text %q", got)
	}
	if got := htmlBody("a < b\n\nc"); got != `<html><body style="font-family: sans-serif; line-height: 1.6; color: #333;"><p>a &lt; b</p><p>c</p></body></html>` {
		t.Errorf("Unexpected html %q", got)
	}

	if err := (&Email{}).Notify(context.Background(), "s", "t"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}
