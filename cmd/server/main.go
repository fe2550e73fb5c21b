package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	api "github.com/lingvistik/lingvistik-server/internal/api/http"
	"github.com/lingvistik/lingvistik-server/internal/auth"
	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/config"
	"github.com/lingvistik/lingvistik-server/internal/db"
	"github.com/lingvistik/lingvistik-server/internal/quiz"
	"github.com/lingvistik/lingvistik-server/internal/rbac"
	"github.com/lingvistik/lingvistik-server/internal/storage"
	"github.com/lingvistik/lingvistik-server/internal/store"
	syncx "github.com/lingvistik/lingvistik-server/internal/sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)

	if err := ensureAdmin(ctx, dbh, cfg); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	partialPolicy := quiz.NewPartialPolicy(cfg.PartialCreditLanguages)
	reviewPolicy := quiz.NewPartialPolicy(cfg.ReviewPartialLanguages)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Auth endpoints (public)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, dbh, cfg))
	}
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", auth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", auth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.With(rbac.Require("test:view")).
			Get("/tests/languages", api.ListLanguagesHandler(st))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{language}/variants", api.ListVariantsHandler(st))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{language}/variants/{variant}", api.GetTestHandler(st))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{language}/random", api.RandomTestHandler(st))
		pr.With(rbac.Require("test:upload")).
			Post("/tests", api.UploadTestsHandler(st, events))

		pr.With(rbac.Require("result:save")).
			Post("/attempts", api.SubmitAttemptHandler(st, events, partialPolicy))
		pr.With(rbac.Require("result:save")).
			Post("/results", api.SaveResultHandler(st, events))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results", api.ListResultsHandler(st))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}", api.GetResultHandler(st))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}/stats", api.ResultStatsHandler(st, partialPolicy, reviewPolicy))

		pr.With(rbac.Require("bookmark:manage")).
			Post("/bookmarks", api.AddBookmarkHandler(st))
		pr.With(rbac.Require("bookmark:manage")).
			Get("/bookmarks", api.ListBookmarksHandler(st))
		pr.With(rbac.Require("bookmark:manage")).
			Delete("/bookmarks/{questionID}", api.RemoveBookmarkHandler(st))

		pr.With(rbac.Require("event:replay")).
			Get("/events", api.ReplayEventsHandler(events))

		pr.Route("/profile", func(ar chi.Router) {
			ar.Use(rbac.Require("profile:manage"))
			api.MountProfile(ar, bs, dbh)
		})
	})

	log.Printf("lingvistik server listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}

// ensureAdmin upserts the bootstrap admin account when a bcrypt hash is
// configured.
func ensureAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	if cfg.AdminPassHash == "" {
		return nil
	}
	_, err := dbh.ExecContext(ctx, `INSERT INTO users (id, username, pass_hash, role, created_at)
		VALUES ($1,$2,$3,'admin',$4)
		ON CONFLICT (username) DO UPDATE SET pass_hash=EXCLUDED.pass_hash, role='admin'`,
		"local|"+cfg.AdminUser, cfg.AdminUser, cfg.AdminPassHash, time.Now().Unix())
	return err
}
