// Package gdrive adapts Google Drive and Google Sheets to the source.Source
// and source.Sink interfaces.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/retry"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheetMimeType is the MIME type of a native Google spreadsheet.
const GoogleSheetMimeType = "application/vnd.google-apps.spreadsheet"

// Scopes needed by the adapters.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// HTTPClient returns an authorized client. With a credentials file the
// service account JWT flow is used; otherwise Application Default
// Credentials.
func HTTPClient(ctx context.Context, credentialsFile string, scopes ...string) (*http.Client, error) {
	if len(scopes) == 0 {
		scopes = Scopes
	}
	if credentialsFile == "" {
		client, err := google.DefaultClient(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to use application default credentials: %w", err)
		}
		return client, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials %s: %w", credentialsFile, err)
	}
	cfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", credentialsFile, err)
	}
	return cfg.Client(ctx), nil
}

// NewDrive creates a Drive service. Extra options (endpoint overrides in
// tests) are appended after the HTTP client.
func NewDrive(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return svc, nil
}

// NewSheets creates a Sheets service.
func NewSheets(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}

// IsRetryable reports whether a Google API error is worth retrying: server
// errors, quota errors and errors that never reached the API.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return !errors.Is(err, context.Canceled)
	}
	switch {
	case apiErr.Code >= 500 && apiErr.Code < 600:
		return true
	case apiErr.Code == http.StatusTooManyRequests:
		return true
	case apiErr.Code == http.StatusForbidden:
		msg := strings.ToLower(apiErr.Message)
		for _, e := range apiErr.Errors {
			msg += " " + strings.ToLower(e.Reason)
		}
		return strings.Contains(msg, "ratelimitexceeded") || strings.Contains(msg, "userratelimitexceeded")
	}
	return false
}

// DefaultPolicy is the retry policy of the Drive and Sheets calls: three
// attempts, waiting 5s then 10s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		Attempts:  3,
		Backoff:   retry.Linear(5 * time.Second),
		Retryable: IsRetryable,
	}
}
