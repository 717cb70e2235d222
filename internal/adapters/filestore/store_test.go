package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/adapters/textreceipt"
	"github.com/csg33k/fuel-receipts/internal/domain"
)

func doc() domain.ReceiptDocument {
	return domain.ReceiptDocument{
		ReceiptNumber: "REC-00001234",
		Width:         20,
		Blocks: []domain.Block{{Kind: domain.BlockFooter, Lines: []domain.Line{
			{Columns: []domain.Column{{Text: "THANK YOU"}}},
		}}},
	}
}

func TestSaveAndOpen(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	ctx := context.Background()

	name, err := s.Save(ctx, doc(), textreceipt.New())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "receipt-REC-00001234-"), name)
	assert.True(t, strings.HasSuffix(name, ".txt"), name)

	rc, err := s.Open(ctx, name)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "THANK YOU\n", string(body))

	// No temp files are left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_UniqueNames(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	a, err := s.Save(context.Background(), doc(), textreceipt.New())
	require.NoError(t, err)
	b, err := s.Save(context.Background(), doc(), textreceipt.New())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

type failingEncoder struct{}

func (failingEncoder) Encode(domain.ReceiptDocument, io.Writer) error { return errors.New("boom") }
func (failingEncoder) Extension() string                               { return ".bin" }
func (failingEncoder) ContentType() string                             { return "application/octet-stream" }

func TestSave_EncodeFailureWritesNothing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Save(context.Background(), doc(), failingEncoder{})
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_NotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600))

	for _, name := range []string{
		"missing.pdf",
		"../secret.txt",
		"out/../../secret.txt",
		"..",
		"",
		`..\secret.txt`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(context.Background(), name)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "REC-0001", sanitize("REC-0001"))
	assert.Equal(t, "REC0001", sanitize("REC/../0001"))
}
