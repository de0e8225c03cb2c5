package gdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/retry"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/source"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// ErrNoTarget is returned when a DriveSink has neither a file ID nor a
// folder for an artifact.
var ErrNoTarget = errors.New("no drive file or folder configured")

// DriveSource downloads a spreadsheet from Drive. Native Google
// spreadsheets are exported as xlsx; uploaded files are downloaded as is.
type DriveSource struct {
	Service *drive.Service
	FileID  string
	// Sheet selects the sheet to read; empty reads the first one.
	Sheet  string
	Logger zerolog.Logger
	// Quiet hides the download progress bar.
	Quiet bool
}

func (s *DriveSource) Name() string { return "drive:" + s.FileID }

// Fetch downloads the file and parses it.
func (s *DriveSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	meta, err := s.Service.Files.Get(s.FileID).
		Fields("id", "name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get drive file %s: %w", s.FileID, err)
	}

	data, err := s.download(ctx, meta)
	if err != nil {
		return nil, err
	}
	s.Logger.Info().Str("file_id", s.FileID).Str("name", meta.Name).Int("bytes", len(data)).Msg("download concluído")

	if isCSV(meta) {
		return sheet.ParseCSV(strings.TrimSuffix(meta.Name, filepath.Ext(meta.Name)), data)
	}
	return sheet.ReadXLSXReader(bytes.NewReader(data), s.Sheet)
}

func (s *DriveSource) download(ctx context.Context, meta *drive.File) ([]byte, error) {
	var (
		body   io.ReadCloser
		length int64
	)
	if meta.MimeType == GoogleSheetMimeType {
		resp, err := s.Service.Files.Export(s.FileID, source.XLSXMimeType).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("failed to export drive file %s: %w", s.FileID, err)
		}
		body, length = resp.Body, resp.ContentLength
	} else {
		resp, err := s.Service.Files.Get(s.FileID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("failed to download drive file %s: %w", s.FileID, err)
		}
		body, length = resp.Body, resp.ContentLength
	}
	defer body.Close()

	var bar *progressbar.ProgressBar
	if s.Quiet {
		bar = progressbar.DefaultBytesSilent(length, meta.Name)
	} else {
		bar = progressbar.DefaultBytes(length, "baixando "+meta.Name)
	}
	defer bar.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), body); err != nil {
		return nil, fmt.Errorf("failed to read drive file %s: %w", s.FileID, err)
	}
	return buf.Bytes(), nil
}

func isCSV(meta *drive.File) bool {
	return meta.MimeType == "text/csv" || strings.EqualFold(filepath.Ext(meta.Name), ".csv")
}

// DriveSink uploads artifacts to Drive. An artifact whose name is in
// FileIDs updates that file; otherwise the file with the same name inside
// FolderID is updated, or created when absent.
type DriveSink struct {
	Service  *drive.Service
	FileIDs  map[string]string
	FolderID string
	Policy   retry.Policy
	Logger   zerolog.Logger
}

func (s *DriveSink) Name() string { return "drive" }

// Publish uploads a.
func (s *DriveSink) Publish(ctx context.Context, a source.Artifact) error {
	if err := a.Check(); err != nil {
		return err
	}
	name := a.Name
	if name == "" {
		name = filepath.Base(a.Path)
	}
	mime := a.MimeType
	if mime == "" {
		mime = source.XLSXMimeType
	}

	id := s.FileIDs[name]
	if id == "" {
		if s.FolderID == "" {
			return fmt.Errorf("%w: %s", ErrNoTarget, name)
		}
		found, err := s.findInFolder(ctx, name)
		if err != nil {
			return err
		}
		id = found
	}

	return retry.Do(ctx, s.Policy, "upload "+name, func(ctx context.Context) error {
		f, err := os.Open(a.Path)
		if err != nil {
			return retry.Stop(err)
		}
		defer f.Close()

		if id != "" {
			_, err = s.Service.Files.Update(id, &drive.File{}).
				Media(f, googleapi.ContentType(mime)).
				SupportsAllDrives(true).
				Context(ctx).
				Do()
			if err == nil {
				s.Logger.Info().Str("file_id", id).Str("name", name).Msg("arquivo atualizado no drive")
			}
			return err
		}

		created, err := s.Service.Files.Create(&drive.File{Name: name, Parents: []string{s.FolderID}}).
			Media(f, googleapi.ContentType(mime)).
			SupportsAllDrives(true).
			Fields("id").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		id = created.Id
		s.Logger.Info().Str("file_id", id).Str("name", name).Msg("arquivo criado no drive")
		return nil
	})
}

func (s *DriveSink) findInFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), escapeQuery(s.FolderID))
	var id string
	err := retry.Do(ctx, s.Policy, "list "+name, func(ctx context.Context) error {
		list, err := s.Service.Files.List().
			Q(q).
			Fields("files(id, name)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(list.Files) > 0 {
			id = list.Files[0].Id
		}
		return nil
	})
	return id, err
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
