// Package server Miraj
//
// The Miraj engine serves the reciprocal-visibility feed and engagement
// state (likes, comments) of the photo-sharing app.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/tomasen/realip"

	"github.com/miraj-net/miraj/internal/service"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const maxBodySize = 64 * 1024

type server struct {
	s service.Service
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s service.Service, r chi.Router, timeout time.Duration) {
	r.Use(
		loggerMiddleware,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		bodyLimiterMiddleware(maxBodySize),
	)

	srv := server{
		s: s,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", srv.createUser)
		r.Put("/users/profile", srv.updateProfile)

		r.Get("/feed", srv.getFeed)

		r.Post("/posts", srv.createPost)
		r.Put("/posts/{id}/caption", srv.editCaption)
		r.Delete("/posts/{id}", srv.deletePost)

		r.Post("/posts/{id}/like", srv.toggleLike)
		r.Get("/posts/{id}/comments", srv.listComments)
		r.Post("/posts/{id}/comments", srv.addComment)
	})
}

func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(logrus.Fields{
			"ip":     realip.FromRequest(r),
			"method": r.Method,
			"uri":    r.RequestURI,
		}).Debug("request")

		next.ServeHTTP(w, r)
	})
}

func bodyLimiterMiddleware(size int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)

			next.ServeHTTP(w, r)
		})
	}
}
