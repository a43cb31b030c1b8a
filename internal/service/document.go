package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dokumenapi/internal/model"
	"dokumenapi/internal/repository"
	"dokumenapi/internal/storage"
	"dokumenapi/internal/validation"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrFileNotFound = errors.New("document file not found")
)

const (
	// DefaultCollection is the logical folder documents are stored under.
	DefaultCollection = "documents"

	defaultListLimit = 10
	maxListLimit     = 100
)

var tracer = otel.Tracer("dokumenapi/internal/service")

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Download is an open handle on a document's stored file. Callers must close Body.
type Download struct {
	Document    *model.Document
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create validates the upload, writes it to the blob store and inserts its record.
	// The two writes are not atomic: a failed insert leaves the blob behind (logged, not removed).
	Create(ctx context.Context, f *validation.File) (*model.Document, error)

	// Update replaces the document's file when f is non-nil; a nil f returns the stored record untouched.
	// The old blob is removed before the new one is written.
	Update(ctx context.Context, id string, f *validation.File) (*model.Document, error)

	// Delete removes the stored file (if still present) and then the record.
	Delete(ctx context.Context, id string) error

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Open returns a streaming handle on the document's file.
	Open(ctx context.Context, id string) (*Download, error)
}

// Options configures a DocumentService.
type Options struct {
	// RootPrefix is prepended to record paths to form blob keys ("public" -> "public/documents/...").
	RootPrefix string
	// Collection is the folder recorded in file_path. Defaults to DefaultCollection.
	Collection    string
	MaxUploadSize int64
	Logger        *slog.Logger
	// Now is the clock used for file names and timestamps. Defaults to time.Now.
	Now func() time.Time
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	rootPrefix string
	collection string
	maxSize    int64
	log        *slog.Logger
	now        func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts Options) DocumentService {
	s := &documentService{
		store:      store,
		repo:       repo,
		rootPrefix: strings.Trim(opts.RootPrefix, "/"),
		collection: opts.Collection,
		maxSize:    opts.MaxUploadSize,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if s.collection == "" {
		s.collection = DefaultCollection
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "document_service")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var whitespace = regexp.MustCompile(`\s+`)

// StorageFilename derives the stored file name: unix seconds, an underscore, and the
// client's base name with every whitespace run collapsed to a single underscore.
func StorageFilename(at time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	return strconv.FormatInt(at.Unix(), 10) + "_" + whitespace.ReplaceAllString(base, "_")
}

func (s *documentService) Create(ctx context.Context, f *validation.File) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer func() { finishSpan(span, err) }()

	if err := validation.DocumentRules(s.maxSize, true).Validate(f); err != nil {
		return nil, err
	}

	filePath, key, err := s.write(ctx, f, s.now())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("document.file_path", filePath))

	now := s.now().UTC()
	stored, err := s.repo.Create(ctx, &model.Document{
		FilePath:  filePath,
		FileType:  f.Ext(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "document record not saved, stored file is orphaned",
			"key", key,
			"error", err,
		)
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *documentService) Update(ctx context.Context, id string, f *validation.File) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finishSpan(span, err) }()

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.DocumentRules(s.maxSize, false).Validate(f); err != nil {
		return nil, err
	}
	if f == nil {
		return current, nil
	}

	if current.FilePath != "" {
		if err := s.removeIfExists(ctx, s.key(current.FilePath)); err != nil {
			return nil, fmt.Errorf("delete old file: %w", err)
		}
	}

	now := s.now()
	filePath, key, err := s.write(ctx, f, now)
	if err != nil {
		return nil, err
	}

	next := *current
	next.FilePath = filePath
	next.FileType = f.Ext()
	next.UpdatedAt = now.UTC()

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		s.log.ErrorContext(ctx, "document record not updated, stored file is orphaned",
			"document_id", id,
			"key", key,
			"stale_file_path", current.FilePath,
			"error", err,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finishSpan(span, err) }()

	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := s.removeIfExists(ctx, s.key(doc.FilePath)); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Get", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finishSpan(span, err) }()

	return s.find(ctx, id)
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (res *DocumentListResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { finishSpan(span, err) }()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: page.Items, Total: page.Total}, nil
}

func (s *documentService) Open(ctx context.Context, id string) (dl *Download, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Open", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finishSpan(span, err) }()

	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, s.key(doc.FilePath))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ct := info.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = validation.ContentType(doc.FileType)
	}
	return &Download{
		Document:    doc,
		Body:        body,
		Size:        info.Size,
		ContentType: ct,
		Filename:    path.Base(doc.FilePath),
	}, nil
}

// find resolves id to a stored document. Malformed ids cannot exist and report ErrNotFound.
func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// write stores f under the collection and returns its record path and blob key.
func (s *documentService) write(ctx context.Context, f *validation.File, at time.Time) (string, string, error) {
	filePath := path.Join(s.collection, StorageFilename(at, f.Filename))
	key := s.key(filePath)

	_, err := s.store.Put(ctx, key, f.Content, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: validation.ContentType(f.Ext()),
		Metadata: map[string]string{
			"original-filename": url.PathEscape(f.Filename),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("upload to storage: %w", err)
	}
	return filePath, key, nil
}

func (s *documentService) removeIfExists(ctx context.Context, key string) error {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.store.Delete(ctx, key)
}

// key maps a record path to its blob key by re-applying the storage root prefix.
func (s *documentService) key(filePath string) string {
	if s.rootPrefix == "" {
		return filePath
	}
	return s.rootPrefix + "/" + filePath
}

// finishSpan marks the span failed for unexpected errors only; client errors are expected outcomes.
func finishSpan(span trace.Span, err error) {
	if err != nil && !IsClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IsClientError reports whether err is a validation or not-found outcome rather than a failure.
func IsClientError(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrFileNotFound)
}
