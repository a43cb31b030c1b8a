package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dokumenapi/internal/logger"
	"dokumenapi/internal/model"
	"dokumenapi/internal/repository"
	repoMocks "dokumenapi/internal/repository/mocks"
	"dokumenapi/internal/storage"
	storeMocks "dokumenapi/internal/storage/mocks"
	"dokumenapi/internal/validation"
)

const (
	docID   = "0b7e2c1e-4f55-4d8a-9a35-6f1c2d3e4f50"
	pdfBody = "%PDF-1.7\nbody"
	zipBody = "PK\x03\x04docx-body"
)

// anyCtx matches the span-carrying context the service passes down.
var anyCtx = mock.Anything

var fixedNow = time.Unix(1700000000, 0).UTC()

func newTestService(mStore storage.Storage, mRepo repository.DocumentRepository) DocumentService {
	return NewDocumentService(mStore, mRepo, Options{
		RootPrefix:    "public",
		MaxUploadSize: 10240 * 1024,
		Logger:        logger.Discard(),
		Now:           func() time.Time { return fixedNow },
	})
}

func upload(name, body string) *validation.File {
	return &validation.File{Filename: name, Size: int64(len(body)), Content: strings.NewReader(body)}
}

type brokenUpload struct{}

func (brokenUpload) Read([]byte) (int, error)       { return 0, errors.New("connection reset") }
func (brokenUpload) Seek(int64, int) (int64, error) { return 0, nil }

func TestStorageFilename(t *testing.T) {
	tests := []struct {
		original string
		want     string
	}{
		{"My Report.pdf", "1700000000_My_Report.pdf"},
		{"a  b\tc.docx", "1700000000_a_b_c.docx"},
		{"plain.xlsx", "1700000000_plain.xlsx"},
		{`C:\Users\me\Q3 plan.pptx`, "1700000000_Q3_plan.pptx"},
		{"../../etc/x.pdf", "1700000000_x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			assert.Equal(t, tt.want, StorageFilename(fixedNow, tt.original))
		})
	}
}

func TestDocumentService_Create(t *testing.T) {
	tests := []struct {
		name       string
		file       *validation.File
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErrMsg string
		wantValid  bool
		check      func(t *testing.T, doc *model.Document)
	}{
		{
			name: "happy path",
			file: upload("My Report.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", anyCtx, "public/documents/1700000000_My_Report.pdf", mock.Anything, storage.PutObjectOptions{
					Size:        int64(len(pdfBody)),
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "My%20Report.pdf"},
				}).Return(storage.ObjectInfo{Key: "public/documents/1700000000_My_Report.pdf"}, nil)

				mRepo.On("Create", anyCtx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.FilePath == "documents/1700000000_My_Report.pdf" &&
						doc.FileType == "pdf" &&
						doc.CreatedAt.Equal(fixedNow) && doc.UpdatedAt.Equal(fixedNow)
				})).Return(&model.Document{
					ID:        docID,
					FilePath:  "documents/1700000000_My_Report.pdf",
					FileType:  "pdf",
					CreatedAt: fixedNow,
					UpdatedAt: fixedNow,
				}, nil)
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, docID, doc.ID)
				assert.Equal(t, "documents/1700000000_My_Report.pdf", doc.FilePath)
				assert.Equal(t, "pdf", doc.FileType)
			},
		},
		{
			name: "extension is lowercased",
			file: upload("NOTES.DOCX", zipBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", anyCtx, "public/documents/1700000000_NOTES.DOCX", mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mRepo.On("Create", anyCtx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.FileType == "docx"
				})).Return(&model.Document{ID: docID, FileType: "docx"}, nil)
			},
		},
		{
			name:       "missing file",
			file:       nil,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantValid:  true,
		},
		{
			name:       "disallowed type",
			file:       upload("photo.png", "\x89PNG"),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantValid:  true,
		},
		{
			name:       "too large",
			file:       &validation.File{Filename: "big.pdf", Size: 11 << 20, Content: strings.NewReader(pdfBody)},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantValid:  true,
		},
		{
			name: "storage error",
			file: upload("a.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", anyCtx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:       "unreadable upload is a server error",
			file:       &validation.File{Filename: "a.pdf", Size: 10, Content: brokenUpload{}},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantErrMsg: "read upload: connection reset",
		},
		{
			name: "repository error leaves blob in place",
			file: upload("a.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", anyCtx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", anyCtx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErrMsg: "db save failed: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			doc, err := svc.Create(context.Background(), tt.file)

			switch {
			case tt.wantValid:
				var verrs validation.Errors
				require.True(t, errors.As(err, &verrs))
				assert.NotEmpty(t, verrs["file_dokumen"])
				assert.Nil(t, doc)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.False(t, IsClientError(err))
			default:
				require.NoError(t, err)
				require.NotNil(t, doc)
				if tt.check != nil {
					tt.check(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			if tt.wantValid {
				mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDocumentService_Update(t *testing.T) {
	created := time.Unix(1690000000, 0).UTC()
	existing := func() *model.Document {
		return &model.Document{
			ID:        docID,
			FilePath:  "documents/1690000000_old.pdf",
			FileType:  "pdf",
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	tests := []struct {
		name       string
		id         string
		file       *validation.File
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantErrMsg string
		wantValid  bool
		check      func(t *testing.T, doc *model.Document)
	}{
		{
			name: "replaces file",
			id:   docID,
			file: upload("new plan.docx", zipBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, "public/documents/1690000000_old.pdf").Return(true, nil)
				mStore.On("Delete", anyCtx, "public/documents/1690000000_old.pdf").Return(nil)
				mStore.On("Put", anyCtx, "public/documents/1700000000_new_plan.docx", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
					return o.ContentType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
				})).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Update", anyCtx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.ID == docID &&
						doc.FilePath == "documents/1700000000_new_plan.docx" &&
						doc.FileType == "docx" &&
						doc.CreatedAt.Equal(created) &&
						doc.UpdatedAt.Equal(fixedNow)
				})).Return(&model.Document{
					ID:        docID,
					FilePath:  "documents/1700000000_new_plan.docx",
					FileType:  "docx",
					CreatedAt: created,
					UpdatedAt: fixedNow,
				}, nil)
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "documents/1700000000_new_plan.docx", doc.FilePath)
				assert.Equal(t, "docx", doc.FileType)
				assert.True(t, doc.CreatedAt.Equal(created))
			},
		},
		{
			name: "old blob already gone",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, "public/documents/1690000000_old.pdf").Return(false, nil)
				mStore.On("Put", anyCtx, "public/documents/1700000000_x.pdf", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Update", anyCtx, mock.Anything).Return(&model.Document{ID: docID, FilePath: "documents/1700000000_x.pdf"}, nil)
			},
		},
		{
			name: "no file is a no-op",
			id:   docID,
			file: nil,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, existing(), doc)
			},
		},
		{
			name: "invalid file keeps old blob",
			id:   docID,
			file: upload("photo.png", "\x89PNG"),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
			},
			wantValid: true,
		},
		{
			name: "unknown id",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "malformed id",
			id:         "not-a-uuid",
			file:       upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrNotFound,
		},
		{
			name: "old blob delete fails",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(true, nil)
				mStore.On("Delete", anyCtx, mock.Anything).Return(errors.New("storage fail"))
			},
			wantErrMsg: "delete old file: storage fail",
		},
		{
			name: "new blob write fails",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(false, nil)
				mStore.On("Put", anyCtx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "record update fails",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(false, nil)
				mStore.On("Put", anyCtx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Update", anyCtx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErrMsg: "db update failed: db fail",
		},
		{
			name: "record removed concurrently",
			id:   docID,
			file: upload("x.pdf", pdfBody),
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(existing(), nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(false, nil)
				mStore.On("Put", anyCtx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Update", anyCtx, mock.Anything).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			doc, err := svc.Update(context.Background(), tt.id, tt.file)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			case tt.wantValid:
				var verrs validation.Errors
				require.True(t, errors.As(err, &verrs))
				assert.Nil(t, doc)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			default:
				require.NoError(t, err)
				require.NotNil(t, doc)
				if tt.check != nil {
					tt.check(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			if tt.wantErr != nil || tt.wantValid {
				mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDocumentService_Delete(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
				mStore.On("Exists", anyCtx, "public/documents/a.pdf").Return(true, nil)
				mStore.On("Delete", anyCtx, "public/documents/a.pdf").Return(nil)
				mRepo.On("Delete", anyCtx, docID).Return(nil)
			},
		},
		{
			name: "blob already gone",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
				mStore.On("Exists", anyCtx, "public/documents/a.pdf").Return(false, nil)
				mRepo.On("Delete", anyCtx, docID).Return(nil)
			},
		},
		{
			name: "not found",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "malformed id",
			id:         "42",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrNotFound,
		},
		{
			name: "storage exists check error",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(false, errors.New("storage fail"))
			},
			wantErrMsg: "delete storage: storage fail",
		},
		{
			name: "storage delete error keeps record",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(true, nil)
				mStore.On("Delete", anyCtx, mock.Anything).Return(errors.New("storage fail"))
			},
			wantErrMsg: "delete storage: storage fail",
		},
		{
			name: "repository delete error",
			id:   docID,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
				mStore.On("Exists", anyCtx, mock.Anything).Return(true, nil)
				mStore.On("Delete", anyCtx, mock.Anything).Return(nil)
				mRepo.On("Delete", anyCtx, docID).Return(errors.New("db fail"))
			},
			wantErrMsg: "delete record: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(context.Background(), tt.id)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   docID,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID}, nil)
			},
		},
		{
			name:       "empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrNotFound,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   docID,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   docID,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", anyCtx, docID).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestService(nil, mRepo)

			tt.setupMocks(mRepo)

			doc, err := svc.Get(context.Background(), tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.NotErrorIs(t, err, ErrNotFound)
				}
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, tt.id, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    bool
		checkRes   func(t *testing.T, res *DocumentListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", anyCtx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{
						Items: []model.Document{{ID: "1"}, {ID: "2"}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *DocumentListResult) {
				assert.Len(t, res.Items, 2)
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", anyCtx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
		},
		{
			name:  "limit is capped",
			limit: 500,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", anyCtx, repository.PageQuery{Limit: 100, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", anyCtx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestService(nil, mRepo)

			tt.setupMocks(mRepo)

			res, err := svc.List(context.Background(), tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Open(t *testing.T) {
	t.Run("streams stored file", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := newTestService(mStore, mRepo)

		mRepo.On("FindByID", anyCtx, docID).
			Return(&model.Document{ID: docID, FilePath: "documents/1700000000_My_Report.pdf", FileType: "pdf"}, nil)
		mStore.On("Get", anyCtx, "public/documents/1700000000_My_Report.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte(pdfBody))), storage.ObjectInfo{Size: int64(len(pdfBody))}, nil)

		dl, err := svc.Open(context.Background(), docID)
		require.NoError(t, err)
		defer dl.Body.Close()

		assert.Equal(t, "1700000000_My_Report.pdf", dl.Filename)
		assert.Equal(t, "application/pdf", dl.ContentType)
		assert.Equal(t, int64(len(pdfBody)), dl.Size)
		body, _ := io.ReadAll(dl.Body)
		assert.Equal(t, pdfBody, string(body))
	})

	t.Run("blob missing", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := newTestService(mStore, mRepo)

		mRepo.On("FindByID", anyCtx, docID).Return(&model.Document{ID: docID, FilePath: "documents/a.pdf"}, nil)
		mStore.On("Get", anyCtx, "public/documents/a.pdf").Return(nil, storage.ObjectInfo{}, storage.ErrNotFound)

		dl, err := svc.Open(context.Background(), docID)
		assert.ErrorIs(t, err, ErrFileNotFound)
		assert.Nil(t, dl)
		assert.True(t, IsClientError(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := newTestService(nil, mRepo)

		mRepo.On("FindByID", anyCtx, docID).Return(nil, sql.ErrNoRows)

		_, err := svc.Open(context.Background(), docID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNewDocumentService_EmptyRootPrefix(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mRepo, Options{
		Logger: logger.Discard(),
		Now:    func() time.Time { return fixedNow },
	})

	mStore.On("Put", anyCtx, "documents/1700000000_a.pdf", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	mRepo.On("Create", anyCtx, mock.Anything).Return(&model.Document{ID: docID}, nil)

	_, err := svc.Create(context.Background(), upload("a.pdf", pdfBody))
	require.NoError(t, err)
	mStore.AssertExpectations(t)
}
