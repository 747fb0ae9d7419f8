package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/darwkzm/sopo/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	dataHandler *handlers.DataHandler,
	staffHandler *handlers.StaffHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.MethodNotAllowed(dataHandler.MethodNotAllowed)

		r.Get("/data", dataHandler.GetDocument)
		r.Post("/data", dataHandler.CreateRecord)
		r.Put("/data", dataHandler.ReplaceCollection)

		r.Post("/staff/login", staffHandler.Login)
	})

	router.Get("/ws/live", webSocketHandler.ServeWs)
}
