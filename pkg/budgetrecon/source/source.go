// Package source defines where the jobs read their sheets from and where
// they publish the files they produce.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/retry"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/rs/zerolog"
)

// XLSXMimeType is the MIME type of an xlsx workbook.
const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmptyArtifact is returned when a file to publish is missing or empty.
var ErrEmptyArtifact = errors.New("artifact is missing or empty")

// Source fetches one sheet.
type Source interface {
	Fetch(ctx context.Context) (*sheet.Table, error)
	// Name describes the source in logs.
	Name() string
}

// Artifact is a file produced by a job.
type Artifact struct {
	// Name is the logical file name, e.g. comparativo_final_atualizado.xlsx.
	Name string
	// Path is where the file was written locally.
	Path     string
	MimeType string
	// Sheets holds the written data for sinks that publish rows instead of
	// files.
	Sheets []sheet.SheetData
}

// Check returns ErrEmptyArtifact when the local file is missing or empty.
func (a Artifact) Check() error {
	info, err := os.Stat(a.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEmptyArtifact, a.Path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyArtifact, a.Path)
	}
	return nil
}

// Sink publishes an artifact.
type Sink interface {
	Publish(ctx context.Context, a Artifact) error
	Name() string
}

// FileSource reads a local xlsx or csv file.
type FileSource struct {
	Path  string
	Sheet string
}

func (s FileSource) Name() string { return s.Path }

// Fetch reads the file.
func (s FileSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sheet.Read(s.Path, s.Sheet)
}

// DirSink copies artifacts into a directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Name() string { return "dir:" + s.Dir }

// Publish copies a.Path to Dir/a.Name.
func (s DirSink) Publish(ctx context.Context, a Artifact) error {
	if err := a.Check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Dir, err)
	}
	name := a.Name
	if name == "" {
		name = filepath.Base(a.Path)
	}
	dst := filepath.Join(s.Dir, name)
	if same, _ := samePath(a.Path, dst); same {
		return nil
	}
	return copyFile(a.Path, dst)
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// Retrying wraps a Source so every Fetch is retried with policy.
func Retrying(s Source, policy retry.Policy) Source {
	return retrying{src: s, policy: policy}
}

type retrying struct {
	src    Source
	policy retry.Policy
}

func (r retrying) Name() string { return r.src.Name() }

func (r retrying) Fetch(ctx context.Context) (*sheet.Table, error) {
	var t *sheet.Table
	err := retry.Do(ctx, r.policy, "fetch "+r.src.Name(), func(ctx context.Context) error {
		var err error
		t, err = r.src.Fetch(ctx)
		return err
	})
	return t, err
}

// PublishAll publishes a to every sink. Failures are logged and never
// abort: the result is true only when every sink succeeded.
func PublishAll(ctx context.Context, log zerolog.Logger, a Artifact, sinks ...Sink) bool {
	ok := true
	for _, s := range sinks {
		if err := s.Publish(ctx, a); err != nil {
			ok = false
			log.Error().Err(err).Str("sink", s.Name()).Str("file", a.Name).Msg("falha ao publicar arquivo")
			continue
		}
		log.Info().Str("sink", s.Name()).Str("file", a.Name).Msg("arquivo publicado")
	}
	return ok
}
