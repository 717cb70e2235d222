// Package filestore keeps encoded receipts in a local directory so they can
// be downloaded after the generating request has returned.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/ports"
)

type Store struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save encodes doc fully in memory first, so a failed encode never leaves a
// partial file behind. The name is unique per call even for equal receipt
// numbers.
func (s *Store) Save(ctx context.Context, doc domain.ReceiptDocument, enc ports.DocumentEncoder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := enc.Encode(doc, &buf); err != nil {
		return "", fmt.Errorf("encode %s: %w", doc.ReceiptNumber, err)
	}

	name := fileName(doc.ReceiptNumber, enc.Extension())
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return name, nil
}

// Open returns a stored file by the name Save handed out. Names that reach
// outside the directory are reported as not found.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(name) {
		return nil, fmt.Errorf("receipt file %q: %w", name, domain.ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("receipt file %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func fileName(receiptNumber, ext string) string {
	prefix := "receipt"
	if receiptNumber != "" {
		prefix += "-" + sanitize(receiptNumber)
	}
	return prefix + "-" + uuid.NewString() + ext
}

// sanitize keeps letters, digits and dashes.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return -1
	}, s)
}

func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
