package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxUploadBatch caps how many files a single upload request may announce.
const MaxUploadBatch = 10

// maxFileNameBytes bounds stored file names; the cut never splits a rune.
const maxFileNameBytes = 200

// UploadTicket is a freshly created file row plus the presigned URL the
// client PUTs the bytes to.
type UploadTicket struct {
	File      model.StoredFile
	UploadURL string
}

// FileService runs the upload/download flow for files attached to one kind
// of owner (lessons or workflows). Authorization is the caller's job.
type FileService interface {
	// Initiate creates rows in the uploading state and presigned PUT URLs.
	// Rows created before a failure are removed again.
	Initiate(ctx context.Context, ownerID string, filenames []string) ([]UploadTicket, error)
	// Complete verifies the object in storage and marks the file ready,
	// or failed when the object never arrived.
	Complete(ctx context.Context, ownerID, fileID string) (*model.StoredFile, error)
	DownloadURL(ctx context.Context, ownerID, fileID string) (string, error)
	List(ctx context.Context, ownerID string) ([]model.StoredFile, error)
}

type fileService struct {
	repo   repository.FileRepository
	store  storage.ObjectStore
	prefix string
	logger zerolog.Logger
}

// NewFileService stores objects under prefix/{ownerID}/{fileID}/{name}.
func NewFileService(repo repository.FileRepository, store storage.ObjectStore, prefix string, logger zerolog.Logger) FileService {
	return &fileService{
		repo:   repo,
		store:  store,
		prefix: prefix,
		logger: logger.With().Str("service", "FileService").Str("prefix", prefix).Logger(),
	}
}

func (s *fileService) Initiate(ctx context.Context, ownerID string, filenames []string) ([]UploadTicket, error) {
	if len(filenames) == 0 {
		return nil, invalid("at least one filename is required")
	}
	if len(filenames) > MaxUploadBatch {
		return nil, invalid("at most %d files per upload", MaxUploadBatch)
	}
	names := make([]string, len(filenames))
	for i, raw := range filenames {
		name := cleanFileName(raw)
		if name == "" {
			return nil, invalid("filename %q is not usable", raw)
		}
		names[i] = name
	}

	tickets := make([]UploadTicket, 0, len(names))
	var created []string
	for _, name := range names {
		id := uuid.NewString()
		f := &model.StoredFile{
			ID:          id,
			OwnerID:     ownerID,
			FileName:    name,
			StoragePath: path.Join(s.prefix, ownerID, id, name),
		}
		if err := s.repo.CreateFile(ctx, f); err != nil {
			s.rollback(ctx, created)
			return nil, translate(err, "file")
		}
		created = append(created, id)

		url, err := s.store.PresignPut(ctx, f.StoragePath)
		if err != nil {
			s.rollback(ctx, created)
			return nil, fmt.Errorf("presigning upload for %s: %w", name, err)
		}
		tickets = append(tickets, UploadTicket{File: *f, UploadURL: url})
	}

	s.logger.Info().Str("owner_id", ownerID).Int("count", len(tickets)).Msg("Upload initiated")
	return tickets, nil
}

func (s *fileService) rollback(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.repo.DeleteFiles(context.WithoutCancel(ctx), ids); err != nil {
		s.logger.Error().Err(err).Strs("file_ids", ids).Msg("Failed to roll back upload batch")
	}
}

func (s *fileService) Complete(ctx context.Context, ownerID, fileID string) (*model.StoredFile, error) {
	f, err := s.get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if f.IsReady() {
		return f, nil
	}

	info, err := s.store.Inspect(ctx, f.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		if markErr := s.repo.MarkFailed(ctx, f.ID); markErr != nil {
			s.logger.Error().Err(markErr).Str("file_id", f.ID).Msg("Failed to mark file as failed")
		}
		return nil, invalid("file %s was not uploaded", f.FileName)
	}
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", f.StoragePath, err)
	}

	ready, err := s.repo.MarkReady(ctx, f.ID, info.ContentType, info.SizeBytes)
	if err != nil {
		return nil, err
	}
	if ready == nil {
		return nil, notFound("file", fileID)
	}
	s.logger.Info().
		Str("file_id", f.ID).
		Str("content_type", info.ContentType).
		Int64("size_bytes", info.SizeBytes).
		Msg("Upload completed")
	return ready, nil
}

func (s *fileService) DownloadURL(ctx context.Context, ownerID, fileID string) (string, error) {
	f, err := s.get(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}
	if !f.IsReady() {
		return "", fmt.Errorf("%w: file %s is not ready", ErrConflict, f.FileName)
	}
	return s.store.PresignGet(ctx, f.StoragePath, f.FileName)
}

func (s *fileService) List(ctx context.Context, ownerID string) ([]model.StoredFile, error) {
	return s.repo.ListFilesByOwner(ctx, ownerID)
}

// get loads a file and checks it belongs to ownerID.
func (s *fileService) get(ctx context.Context, ownerID, fileID string) (*model.StoredFile, error) {
	f, err := s.repo.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.OwnerID != ownerID {
		return nil, notFound("file", fileID)
	}
	return f, nil
}

// cleanFileName keeps the base name and drops characters that are awkward in
// object keys and Content-Disposition headers.
func cleanFileName(raw string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '"', r == '?', r == '#', r == '%':
			return -1
		}
		return r
	}, name)
	if len(name) > maxFileNameBytes {
		ext := path.Ext(name)
		if len(ext) > 20 {
			ext = ""
		}
		cut := maxFileNameBytes - len(ext)
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}
	return strings.TrimSpace(name)
}
