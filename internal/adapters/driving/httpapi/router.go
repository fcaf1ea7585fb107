package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/ragdex/internal/logger"
)

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// corsMiddleware adds CORS headers so browser frontends can talk to
// the API directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/", handler.HandleRoot).Methods("GET")
	r.HandleFunc("/ping", handler.HandlePing).Methods("GET")
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")
	r.HandleFunc("/stats", handler.HandleStats).Methods("GET")
	r.HandleFunc("/upload-pdfs", handler.HandleUploadPDFs).Methods("POST", "OPTIONS")
	r.HandleFunc("/handle-duplicate", handler.HandleDuplicate).Methods("POST", "OPTIONS")
	r.HandleFunc("/ask", handler.HandleAsk).Methods("POST", "OPTIONS")
	r.HandleFunc("/documents", handler.HandleDocuments).Methods("GET")
	r.HandleFunc("/documents/{doc_id}", handler.HandleDeleteDocument).Methods("DELETE", "OPTIONS")

	return r
}

// NewServer wraps the router in an http.Server with sane timeouts.
// Upload and ask requests can run long, so the write timeout is
// generous.
func NewServer(addr string, handler *Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(handler),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}
