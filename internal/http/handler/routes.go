package handler

import (
	"database/sql"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/swagger"

	"dokumenapi/docs"
	"dokumenapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, log *slog.Logger) {
	log = log.With("component", "http")

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	dokumen := app.Group("/dokumen")
	dokumen.Get("/", ListDocuments(docSvc, log))
	dokumen.Post("/", StoreDocument(docSvc, log))
	dokumen.Get("/:id", GetDocument(docSvc, log))
	dokumen.Get("/:id/file", DownloadDocument(docSvc, log))
	dokumen.Put("/:id", UpdateDocument(docSvc, log))
	dokumen.Patch("/:id", UpdateDocument(docSvc, log))
	dokumen.Delete("/:id", DeleteDocument(docSvc, log))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", SwaggerUI())
}

// swaggerMu serializes writes to the process-wide docs.SwaggerInfo with the doc render that reads it.
var swaggerMu sync.Mutex

// SwaggerUI serves the API docs with host and scheme taken from the request.
// Without a Host header the configured default in docs.SwaggerInfo is kept.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		scheme = utils.CopyString(scheme)
		host := utils.CopyString(c.Get(fiber.HeaderHost))

		swaggerMu.Lock()
		defer swaggerMu.Unlock()
		if host != "" {
			docs.SwaggerInfo.Host = host
		}
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}
