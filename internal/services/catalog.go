package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/storage"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
)

const downloadURLExpiry = 15 * time.Minute

type NoteInput struct {
	Title       string
	Description string
	Section     models.Section
	URL         string
}

type DocumentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type DeleteResult struct {
	NoteID          uuid.UUID            `json:"noteID"`
	ProgressRemoved int64                `json:"progressRemoved"`
	StorageReleased bool                 `json:"storageReleased"`
	StorageErr      *PartialCascadeError `json:"-"`
}

type CatalogService struct {
	Catalog  *store.CatalogStore
	Progress *ProgressEngine
	Storage  storage.ObjectStore
	now      func() time.Time
}

func NewCatalogService(catalog *store.CatalogStore, progress *ProgressEngine, objects storage.ObjectStore) *CatalogService {
	return &CatalogService{Catalog: catalog, Progress: progress, Storage: objects, now: time.Now}
}

func (s *CatalogService) PublishLink(ctx context.Context, uploader *models.UserProfile, input NoteInput) (*models.Note, error) {
	link := strings.TrimSpace(input.URL)
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidLink
	}

	note := newNote(uploader, input, models.NoteKindLink)
	note.URL = link
	return s.create(ctx, uploader, note)
}

// PublishDocument uploads the file first and then records the note. A
// failed catalog write removes the freshly uploaded object again.
func (s *CatalogService) PublishDocument(ctx context.Context, uploader *models.UserProfile, input NoteInput, upload DocumentUpload) (*models.Note, error) {
	if s.Storage == nil {
		return nil, errors.New("object storage is not configured")
	}

	fileName := filepath.Base(strings.TrimSpace(upload.FileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidNote)
	}

	note := newNote(uploader, input, models.NoteKindDocument)
	// Validate before touching storage so a bad request leaves no object behind.
	note.URL = "pending"
	placeholder := "pending"
	note.StoragePath = &placeholder
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("notes/%s/%d_%s", note.Section, s.now().UnixMilli(), fileName)
	locator, err := s.Storage.Put(ctx, objectName, upload.Reader, upload.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("uploading document: %w", err)
	}

	note.URL = locator
	note.FileName = &fileName
	note.StoragePath = &objectName

	created, err := s.create(ctx, uploader, note)
	if err != nil {
		if delErr := s.Storage.Delete(ctx, objectName); delErr != nil {
			logger.Warn("storage_rollback_failed", map[string]interface{}{
				"storage_path": objectName,
				"error":        delErr.Error(),
			})
		}
		return nil, err
	}
	return created, nil
}

func newNote(uploader *models.UserProfile, input NoteInput, kind models.NoteKind) *models.Note {
	note := &models.Note{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Section:     input.Section,
		Kind:        kind,
	}
	if uploader != nil {
		note.UploadedBy = uploader.ID
		note.UploaderName = uploader.DisplayName
	}
	return note
}

func (s *CatalogService) create(ctx context.Context, uploader *models.UserProfile, note *models.Note) (*models.Note, error) {
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}

	id, err := s.Catalog.Create(ctx, note)
	if err != nil {
		return nil, err
	}

	logger.InfoWithUser(note.UploadedBy, "note_published", map[string]interface{}{
		"note_id": id.String(),
		"section": string(note.Section),
		"kind":    string(note.Kind),
	})

	// Re-read so the caller sees exactly what the store holds.
	return s.Catalog.Get(ctx, id)
}

func (s *CatalogService) List(ctx context.Context, section *models.Section) ([]models.Note, error) {
	return s.Catalog.List(ctx, section)
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	return s.Catalog.Get(ctx, id)
}

// Delete retires a note: catalog row first, then its progress records, then
// the backing object. Storage release failures are logged and reported on
// the result without failing the delete. A cascade failure is returned
// together with the result, after the object has been released.
func (s *CatalogService) Delete(ctx context.Context, noteID uuid.UUID) (*DeleteResult, error) {
	note, err := s.Catalog.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if err := s.Catalog.Delete(ctx, noteID); err != nil {
		return nil, err
	}

	// The object is released even when the cascade fails: once the row is
	// gone nothing else knows the storage path.
	removed, cascadeErr := s.Progress.CascadeDelete(ctx, noteID)
	result := &DeleteResult{NoteID: noteID, ProgressRemoved: removed}

	if note.Kind == models.NoteKindDocument && note.StoragePath != nil {
		result.StorageErr = s.releaseObject(ctx, noteID, *note.StoragePath)
		result.StorageReleased = result.StorageErr == nil
	}

	if cascadeErr != nil {
		logger.Error("note_delete_cascade_failed", cascadeErr, map[string]interface{}{
			"note_id":          noteID.String(),
			"storage_released": result.StorageReleased,
		})
		return result, cascadeErr
	}

	logger.Info("note_deleted", map[string]interface{}{
		"note_id":          noteID.String(),
		"progress_removed": removed,
		"storage_released": result.StorageReleased,
	})
	return result, nil
}

func (s *CatalogService) releaseObject(ctx context.Context, noteID uuid.UUID, storagePath string) *PartialCascadeError {
	var err error
	if s.Storage == nil {
		err = errors.New("object storage is not configured")
	} else {
		err = s.Storage.Delete(ctx, storagePath)
	}
	if err == nil {
		return nil
	}

	partial := &PartialCascadeError{NoteID: noteID, StoragePath: storagePath, Err: err}
	logger.Warn("storage_release_failed", map[string]interface{}{
		"note_id":      noteID.String(),
		"storage_path": storagePath,
		"error":        err.Error(),
	})
	return partial
}

// DownloadURL resolves where a reader should be sent: the external URL for
// links, a short-lived presigned URL for documents.
func (s *CatalogService) DownloadURL(ctx context.Context, noteID uuid.UUID) (string, error) {
	note, err := s.Catalog.Get(ctx, noteID)
	if err != nil {
		return "", err
	}
	if note.Kind != models.NoteKindDocument || note.StoragePath == nil || s.Storage == nil {
		return note.URL, nil
	}
	return s.Storage.PresignedGetURL(ctx, *note.StoragePath, downloadURLExpiry)
}
