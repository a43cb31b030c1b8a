package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"dokumenapi/internal/model"
	"dokumenapi/internal/service"
	"dokumenapi/internal/validation"
)

// FileField is the multipart field carrying the uploaded document.
const FileField = "file_dokumen"

type documentResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *model.Document `json:"data,omitempty"`
}

type documentListResponse struct {
	Success bool             `json:"success"`
	Data    []model.Document `json:"data"`
	Total   int              `json:"total"`
}

// formFile returns the uploaded file for field, or nil when the request carries none.
// The returned close func must be called once the service is done with the content.
func formFile(c *fiber.Ctx, field string) (*validation.File, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &validation.File{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  f,
	}, func() { _ = f.Close() }, nil
}

// documentID returns the :id param detached from fasthttp's pooled request buffer.
func documentID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// StoreDocument handles the upload of a new document.
//
// @Summary Upload a document
// @Tags dokumen
// @Accept multipart/form-data
// @Produce json
// @Param file_dokumen formData file true "pdf, doc, docx, ppt, pptx, xls or xlsx; at most 10 MiB"
// @Success 201 {object} documentResponse
// @Failure 422 {object} validationErrorResponse
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen [post]
func StoreDocument(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, closeFile, err := formFile(c, FileField)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		defer closeFile()

		doc, err := svc.Create(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{
			Success: true,
			Message: "Dokumen berhasil diupload",
			Data:    doc,
		})
	}
}

// UpdateDocument replaces a document's file. Without a file the record is returned unchanged.
//
// @Summary Replace a document's file
// @Tags dokumen
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document ID"
// @Param file_dokumen formData file false "replacement file"
// @Success 200 {object} documentResponse
// @Failure 404 {object} notFoundResponse
// @Failure 422 {object} validationErrorResponse
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen/{id} [put]
// @Router /dokumen/{id} [patch]
func UpdateDocument(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, closeFile, err := formFile(c, FileField)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		defer closeFile()

		doc, err := svc.Update(c.UserContext(), documentID(c), f)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusOK).JSON(documentResponse{
			Success: true,
			Message: "Dokumen berhasil diperbarui",
			Data:    doc,
		})
	}
}

// DeleteDocument removes a document and its stored file.
//
// @Summary Delete a document
// @Tags dokumen
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} documentResponse
// @Failure 404 {object} notFoundResponse
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen/{id} [delete]
func DeleteDocument(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), documentID(c)); err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusOK).JSON(documentResponse{
			Success: true,
			Message: "Dokumen dihapus",
		})
	}
}

// ListDocuments lists documents with limit & offset.
//
// @Summary List documents
// @Tags dokumen
// @Produce json
// @Param limit query int false "page size (default 10, max 100)"
// @Param offset query int false "rows to skip"
// @Success 200 {object} documentListResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen [get]
func ListDocuments(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		items := res.Items
		if items == nil {
			items = []model.Document{}
		}
		return c.JSON(documentListResponse{Success: true, Data: items, Total: res.Total})
	}
}

// GetDocument returns a single document record.
//
// @Summary Get a document
// @Tags dokumen
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} documentResponse
// @Failure 404 {object} notFoundResponse
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen/{id} [get]
func GetDocument(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), documentID(c))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(documentResponse{Success: true, Data: doc})
	}
}

// DownloadDocument streams the stored file as an attachment.
//
// @Summary Download a document's file
// @Tags dokumen
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} notFoundResponse
// @Failure 500 {object} serverErrorResponse
// @Router /dokumen/{id}/file [get]
func DownloadDocument(svc service.DocumentService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dl, err := svc.Open(c.UserContext(), documentID(c))
		if err != nil {
			return writeServiceError(c, log, err)
		}

		c.Attachment(dl.Filename)
		c.Set(fiber.HeaderContentType, dl.ContentType)

		size := int(dl.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes the stream once the body is written.
		return c.Status(fiber.StatusOK).SendStream(dl.Body, size)
	}
}
