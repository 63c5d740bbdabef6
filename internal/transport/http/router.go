package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpmw "github.com/quickchat/dm-service/internal/transport/http/middleware"
	"github.com/quickchat/dm-service/internal/transport/ws"
)

type RouterDeps struct {
	Handler        *Handler
	WSServer       *ws.Server
	Tokens         httpmw.TokenParser
	Stats          httpmw.HTTPStats
	MetricsHandler http.Handler
	UploadsDir     string
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoint вне Logging/Metrics: обёртка writer ломает hijack при upgrade
	r.Get("/ws", d.WSServer.HandleWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmw.Logging)
		if d.Stats != nil {
			api.Use(httpmw.Metrics(d.Stats))
		}
		api.Use(middlewareChi.Timeout(30 * time.Second))

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", d.Handler.Signup)
			ar.Post("/login", d.Handler.Login)

			ar.Group(func(pr chi.Router) {
				pr.Use(httpmw.AuthMiddleware(d.Tokens))
				pr.Get("/check", d.Handler.CheckAuth)
				pr.Put("/update-profile", d.Handler.UpdateProfile)
			})
		})

		api.Route("/messages", func(mr chi.Router) {
			mr.Use(httpmw.AuthMiddleware(d.Tokens))
			mr.Get("/users", d.Handler.Sidebar)
			mr.Get("/{id}", d.Handler.GetConversation)
			mr.Post("/send/{id}", d.Handler.SendMessage)
			mr.Put("/mark/{id}", d.Handler.MarkSeen)
		})
	})

	if d.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
