package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/yamux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"pairlink/internal/constants"
	"pairlink/internal/security"
	"pairlink/internal/utils"
)

// Relay is the dumb-forwarder rendezvous service: it bridges client
// websockets to hub yamux streams and keeps no authentication state of
// its own.
type Relay struct {
	Registry       Registry
	ConnLimiter    *security.ConnectionLimiter
	BruteProtector *security.BruteForceProtector
	Audit          *security.AuditLogger
	Port           string
	UseTLS         bool

	hubMu sync.RWMutex
	hubs  map[string]*yamux.Session
}

func NewRelay() (*Relay, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize room registry: %w", err)
	}

	audit, err := security.GetAuditLogger()
	if err != nil {
		log.Printf("Warning: Failed to initialize audit logger: %v", err)
	}

	return &Relay{
		Registry:       registry,
		ConnLimiter:    security.NewConnectionLimiter(constants.MaxConnectionsPerIP),
		BruteProtector: security.NewBruteForceProtector(constants.MaxJoinAttempts, constants.BlockDuration),
		Audit:          audit,
		hubs:           make(map[string]*yamux.Session),
	}, nil
}

func (rl *Relay) registerHub(code string, session *yamux.Session) {
	rl.hubMu.Lock()
	defer rl.hubMu.Unlock()
	if old, ok := rl.hubs[code]; ok {
		old.Close()
	}
	rl.hubs[code] = session
}

func (rl *Relay) unregisterHub(code string, session *yamux.Session) {
	rl.hubMu.Lock()
	defer rl.hubMu.Unlock()
	if rl.hubs[code] == session {
		delete(rl.hubs, code)
	}
}

func (rl *Relay) hubSession(code string) (*yamux.Session, bool) {
	rl.hubMu.RLock()
	defer rl.hubMu.RUnlock()
	session, ok := rl.hubs[code]
	return session, ok
}

func (rl *Relay) Run() {
	rl.Port = utils.GetEnv(constants.EnvPort, constants.DefaultRelayPort)
	certFile := utils.GetEnv("PAIRLINK_CERT_FILE", "certs/relay.crt")
	keyFile := utils.GetEnv("PAIRLINK_KEY_FILE", "certs/relay.key")

	mux := http.NewServeMux()
	mux.HandleFunc(constants.EndpointRooms, rl.HandleRooms)
	mux.HandleFunc(constants.EndpointWebSocket, rl.HandleWebSocket)

	var handler http.Handler = mux
	handler = RecoveryMiddleware(handler)
	handler = security.SecurityHeaders(handler)

	enableTLS := utils.GetEnv("PAIRLINK_ENABLE_TLS", "false") == "true"
	useTLS := false

	if enableTLS {
		if _, err := os.Stat(certFile); err == nil {
			if _, err := os.Stat(keyFile); err == nil {
				useTLS = true
			}
		}

		if !useTLS {
			log.Printf("Warning: PAIRLINK_ENABLE_TLS is true but certs not found at %s", certFile)
		}
	}
	rl.UseTLS = useTLS

	var h2Handler http.Handler
	if useTLS {
		h2Handler = handler
	} else {
		h2Handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              ":" + rl.Port,
		Handler:           h2Handler,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTLS {
		log.Printf("🔒 HTTPS enabled (HTTP/2)")
		go func() {
			if err := server.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTPS server error: %v", err)
			}
		}()
	} else {
		log.Printf("🌐 HTTP mode (HTTP/2 enabled)")
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	log.Printf("🚀 pairlink relay starting on :%s", rl.Port)

	<-sigChan
	log.Println("🛑 Shutting down relay...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Relay forced to shutdown: %v", err)
	}

	rl.Cleanup()
	log.Println("✅ Relay stopped")
}

func (rl *Relay) Cleanup() {
	rl.hubMu.Lock()
	for code, session := range rl.hubs {
		session.Close()
		delete(rl.hubs, code)
	}
	rl.hubMu.Unlock()

	rl.Registry.Close()
	if rl.Audit != nil {
		rl.Audit.Close()
	}
}
