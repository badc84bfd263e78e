package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents      *DocumentHandler
	EmissionPoints *EmissionPointHandler
	Customers      *CustomerHandler
	Certificate    *CertificateHandler
	JWTSecret      string
}

// Router registra las rutas de la API. Todas las rutas del motor exigen
// Bearer Token; el tenant sale del token, nunca de la URL.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Puntos de emisión
	points := protected.Group("/emission-points")
	points.Post("/", deps.EmissionPoints.Create)
	points.Get("/", deps.EmissionPoints.List)
	points.Patch("/:id/active", deps.EmissionPoints.SetActive)

	// Compradores
	customers := protected.Group("/customers")
	customers.Post("/", deps.Customers.Create)
	customers.Get("/", deps.Customers.List)

	// Certificado de firma del tenant
	cert := protected.Group("/certificate")
	cert.Put("/", deps.Certificate.Upload)
	cert.Get("/", deps.Certificate.Info)

	// Comprobantes electrónicos: ciclo de vida completo
	docs := protected.Group("/documents")
	docs.Post("/", deps.Documents.Create)
	docs.Get("/", deps.Documents.List)
	docs.Get("/:id", deps.Documents.GetByID)
	docs.Get("/:id/status", deps.Documents.GetStatus)
	docs.Post("/:id/generate-xml", deps.Documents.GenerateXML)
	docs.Post("/:id/sign", deps.Documents.Sign)
	docs.Post("/:id/submit-sri", deps.Documents.Submit)
	docs.Post("/:id/check-authorization", deps.Documents.CheckAuthorization)
	docs.Get("/:id/ride", deps.Documents.GetRIDE)
	docs.Get("/:id/errors", deps.Documents.ListErrors)
	docs.Post("/:id/mark-sent", deps.Documents.MarkSent)
	docs.Post("/:id/mark-paid", deps.Documents.MarkPaid)
}
