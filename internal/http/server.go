package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/carpool-matching/internal/dispatch"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/matcher"
	"github.com/example/carpool-matching/internal/storage"
)

type Options struct {
	Store  storage.PoolStore
	Events events.Publisher // nil disables publishing
	Logger *slog.Logger

	CORSAllowedOrigins []string
}

type Server struct {
	Store   storage.PoolStore
	Matcher *matcher.Service
	Events  events.Publisher
	WSReg   *dispatch.WSRegistry

	logger   *slog.Logger
	validate *validator.Validate
	mux      *mux.Router
	handler  http.Handler
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		Store:    opts.Store,
		Matcher:  &matcher.Service{Pool: opts.Store, Logger: logger},
		Events:   opts.Events,
		WSReg:    dispatch.NewWSRegistry(logger),
		logger:   logger,
		validate: newValidator(),
		mux:      mux.NewRouter(),
	}
	s.routes()
	s.registerMiddleware()
	s.handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
	)(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleWelcome).Methods("GET")

	s.mux.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	s.mux.HandleFunc("/users/{name}", s.handleGetUser).Methods("GET")
	s.mux.HandleFunc("/users/{name}", s.handleUpdateUser).Methods("PUT")
	s.mux.HandleFunc("/users/{name}", s.handleDeleteUser).Methods("DELETE")
	s.mux.HandleFunc("/drivers", s.handleListRole).Methods("GET")
	s.mux.HandleFunc("/riders", s.handleListRole).Methods("GET")

	s.mux.HandleFunc("/disruptions", s.handleCreateDisruption).Methods("POST")
	s.mux.HandleFunc("/disruptions", s.handleListDisruptions).Methods("GET")

	s.mux.HandleFunc("/recommendations/{name}", s.handleRecommendations(false)).Methods("GET")
	s.mux.HandleFunc("/v2/recommendations/{name}", s.handleRecommendations(true)).Methods("GET")

	s.mux.HandleFunc("/ws/{name}", s.handleWS).Methods("GET")

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.HandleFunc("/ready", s.handleReady).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }
