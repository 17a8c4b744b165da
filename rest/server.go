package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chatflowhq/chatflow/audit"
	"github.com/chatflowhq/chatflow/engine"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/metadata"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port        int
	verifyToken string
	storage     persistence.Storage
	metadata    metadata.MetadataService
	engine      *engine.Engine
	audit       *audit.Writer
}

func NewServer(httpPort int, verifyToken string, storage persistence.Storage,
	metadataService metadata.MetadataService, eng *engine.Engine, auditWriter *audit.Writer) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:        httpPort,
		verifyToken: verifyToken,
		storage:     storage,
		metadata:    metadataService,
		engine:      eng,
		audit:       auditWriter,
	}

	router := mux.NewRouter()
	router.HandleFunc("/webhook/provider", s.HandleProviderVerify).Methods(http.MethodGet)
	router.HandleFunc("/webhook/provider", s.HandleProviderDelivery).Methods(http.MethodPost)

	router.HandleFunc("/webhook/flow/{flow}/{node}", s.HandleFlowWebhook)
	router.HandleFunc("/webhook/{webhookId}", s.HandleGlobalWebhook)

	router.HandleFunc("/metadata/flow", s.HandleCreateFlow).Methods(http.MethodPost)
	router.HandleFunc("/metadata/flow/{id}", s.HandleGetFlow).Methods(http.MethodGet)
	router.HandleFunc("/metadata/flow/{id}", s.HandleDeleteFlow).Methods(http.MethodDelete)

	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.Handler
}

func (s *Server) Start() error {
	logger.Info("starting http server", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
