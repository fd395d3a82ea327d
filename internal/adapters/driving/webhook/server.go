// Package webhook hosts the HTTP endpoint GitHub calls on push events.
// A valid signed push payload triggers a background sync of the matching
// registered repository.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// maxPayloadBytes caps webhook request bodies. GitHub push payloads
// stay well under this.
const maxPayloadBytes = 5 << 20

// Server receives GitHub push webhooks and triggers syncs.
type Server struct {
	secret    string
	repoStore driven.RepositoryStore
	sync      driving.SyncOrchestrator
	httpSrv   *http.Server
}

// NewServer builds a webhook server. The secret is shared with GitHub
// at hook registration and validates request signatures.
func NewServer(addr, secret string, repoStore driven.RepositoryStore, sync driving.SyncOrchestrator) *Server {
	s := &Server{
		secret:    secret,
		repoStore: repoStore,
		sync:      sync,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/github", s.handlePush)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving webhook requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logger.Info("Webhook server listening on %s", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// pushPayload is the subset of the GitHub push event we act on.
type pushPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if !s.validSignature(r.Header.Get("X-Hub-Signature-256"), body) {
		logger.Warn("Webhook request with invalid signature from %s", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if event := r.Header.Get("X-GitHub-Event"); event != "push" {
		// Ack and ignore pings and other event types
		w.WriteHeader(http.StatusOK)
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	owner := payload.Repository.Owner.Login
	name := payload.Repository.Name
	repo, err := s.repoStore.GetByFullName(r.Context(), owner, name)
	if err != nil {
		logger.Warn("Push for unregistered repository %s/%s", owner, name)
		http.Error(w, "repository not registered", http.StatusNotFound)
		return
	}

	// Only pushes to the tracked branch trigger a sync
	if branch := strings.TrimPrefix(payload.Ref, "refs/heads/"); branch != repo.Branch {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.sync.StartSync(r.Context(), repo.ID); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			http.Error(w, "sync already running", http.StatusConflict)
			return
		}
		logger.Warn("Starting sync for %s: %v", repo.FullName(), err)
		http.Error(w, "starting sync", http.StatusInternalServerError)
		return
	}

	logger.Info("Push to %s@%s triggered sync", repo.FullName(), payload.After)
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, `{"repo_id":%q,"status":"syncing"}`, repo.ID)
}

// validSignature checks the HMAC-SHA256 signature GitHub sends in
// X-Hub-Signature-256 ("sha256=<hex>").
func (s *Server) validSignature(header string, body []byte) bool {
	if s.secret == "" || !strings.HasPrefix(header, "sha256=") {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.TrimPrefix(header, "sha256=")), []byte(expected))
}
