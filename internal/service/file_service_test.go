package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"coursehub/internal/model"
	"coursehub/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateCreatesTicketsUnderPrefix(t *testing.T) {
	repo, store := newFakeFileRepo(), newFakeStore()
	svc := NewFileService(repo, store, "lessons", zerolog.Nop())

	tickets, err := svc.Initiate(context.Background(), "lesson-1", []string{"slides.pdf", "../../etc/passwd"})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0].File
	assert.Equal(t, fmt.Sprintf("lessons/lesson-1/%s/slides.pdf", first.ID), first.StoragePath)
	assert.Equal(t, model.FileStatusUploading, repo.files[first.ID].Status)
	assert.Contains(t, tickets[0].UploadURL, first.StoragePath)
	assert.Equal(t, "passwd", tickets[1].File.FileName)
}

func TestInitiateLimits(t *testing.T) {
	svc := NewFileService(newFakeFileRepo(), newFakeStore(), "lessons", zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Initiate(ctx, "lesson-1", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	names := make([]string, MaxUploadBatch+1)
	for i := range names {
		names[i] = fmt.Sprintf("f%d.txt", i)
	}
	_, err = svc.Initiate(ctx, "lesson-1", names)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Initiate(ctx, "lesson-1", []string{".."})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInitiateRollsBackOnFailure(t *testing.T) {
	t.Run("presign failure", func(t *testing.T) {
		repo, store := newFakeFileRepo(), newFakeStore()
		store.putErrAt = 2
		svc := NewFileService(repo, store, "lessons", zerolog.Nop())

		_, err := svc.Initiate(context.Background(), "lesson-1", []string{"a.pdf", "b.pdf", "c.pdf"})
		require.Error(t, err)
		assert.Empty(t, repo.files)
		assert.Len(t, repo.deleted, 2)
	})

	t.Run("insert failure", func(t *testing.T) {
		repo := newFakeFileRepo()
		repo.failOnNth = 3
		svc := NewFileService(repo, newFakeStore(), "lessons", zerolog.Nop())

		_, err := svc.Initiate(context.Background(), "lesson-1", []string{"a.pdf", "b.pdf", "c.pdf"})
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, repo.files)
		assert.Len(t, repo.deleted, 2)
	})
}

func TestComplete(t *testing.T) {
	repo, store := newFakeFileRepo(), newFakeStore()
	svc := NewFileService(repo, store, "workflows", zerolog.Nop())
	ctx := context.Background()

	tickets, err := svc.Initiate(ctx, "wf-1", []string{"checklist.csv", "missing.pdf"})
	require.NoError(t, err)
	arrived, missing := tickets[0].File, tickets[1].File
	store.objects[arrived.StoragePath] = storage.ObjectInfo{Key: arrived.StoragePath, SizeBytes: 42, ContentType: "text/csv"}

	ready, err := svc.Complete(ctx, "wf-1", arrived.ID)
	require.NoError(t, err)
	assert.True(t, ready.IsReady())
	assert.Equal(t, int64(42), ready.SizeBytes)
	assert.Equal(t, "text/csv", ready.ContentType)

	_, err = svc.Complete(ctx, "wf-1", missing.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, model.FileStatusFailed, repo.files[missing.ID].Status)

	_, err = svc.Complete(ctx, "wf-2", arrived.ID)
	assert.ErrorIs(t, err, ErrNotFound, "file of another owner")
}

func TestDownloadURLOnlyForReadyFiles(t *testing.T) {
	repo := newFakeFileRepo()
	repo.files["f1"] = &model.StoredFile{ID: "f1", OwnerID: "lesson-1", FileName: "a.pdf", StoragePath: "lessons/lesson-1/f1/a.pdf", Status: model.FileStatusUploading}
	svc := NewFileService(repo, newFakeStore(), "lessons", zerolog.Nop())

	_, err := svc.DownloadURL(context.Background(), "lesson-1", "f1")
	assert.ErrorIs(t, err, ErrConflict)

	repo.files["f1"].Status = model.FileStatusReady
	url, err := svc.DownloadURL(context.Background(), "lesson-1", "f1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://bucket.test/lessons/lesson-1/f1/a.pdf"))
}

func TestCleanFileName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"  notes.md ":          "notes.md",
		`C:\Users\me\plan.txt`: "plan.txt",
		"a/b/c.csv":            "c.csv",
		`quote"d?.txt`:         "quoted.txt",
		"..":                   "",
		"/":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanFileName(in), in)
	}

	long := strings.Repeat("x", 300) + ".pdf"
	got := cleanFileName(long)
	assert.Len(t, got, 200)
	assert.True(t, strings.HasSuffix(got, ".pdf"))

	cyrillic := cleanFileName(strings.Repeat("д", 150) + ".docx")
	assert.True(t, utf8.ValidString(cyrillic))
	assert.LessOrEqual(t, len(cyrillic), 200)
	assert.Equal(t, strings.Repeat("д", 97)+".docx", cyrillic)

	emoji := cleanFileName(strings.Repeat("📘", 60) + ".md")
	assert.True(t, utf8.ValidString(emoji))
	assert.True(t, strings.HasSuffix(emoji, "📘.md"))
}
