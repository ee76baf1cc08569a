package ddbui

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acksell/ddbmodel/dynamodb/models"
)

// ServerConfig configures the API server.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port int
	// Endpoint describes the control plane in the startup banner,
	// e.g. "in-memory" or a DynamoDB endpoint URL.
	Endpoint string
}

// Server is the model API HTTP server.
type Server struct {
	config     ServerConfig
	registry   *models.Registry
	httpServer *http.Server
}

// NewServer creates a server over the models of registry.
// The registry's control plane is not closed on shutdown.
func NewServer(config ServerConfig, registry *models.Registry) *Server {
	return &Server{
		config:   config,
		registry: registry,
	}
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	NewAPIHandler(s.registry).RegisterRoutes(mux)
	return corsMiddleware(loggingMiddleware(mux))
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // table creation may wait for ACTIVE
	}

	// Handle shutdown signals
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("\nShutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.httpServer.Shutdown(ctx)
		close(done)
	}()

	s.printBanner()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) printBanner() {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    DynamoDB Model API                        ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  URL: http://localhost:%-38d║\n", s.config.Port)
	if s.config.Endpoint != "" {
		fmt.Printf("║  Endpoint: %-50s║\n", truncate(s.config.Endpoint, 50))
	}
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Models:                                                     ║")
	for _, m := range s.registry.Models() {
		def := m.Definition()
		line := fmt.Sprintf("    - %s -> %s (%d LSIs, %d GSIs)", m.Name(), def.Name, len(def.LSIs), len(def.GSIs))
		fmt.Printf("║  %-60s║\n", truncate(line, 60))
	}
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Press Ctrl+C to stop                                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if r.URL.Path != "/favicon.ico" {
			log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
