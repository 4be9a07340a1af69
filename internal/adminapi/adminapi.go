// Package adminapi exposes a read-only HTTP view of a worker's topology
// (node list, slot coverage, reconfiguration flags) gated by bearer-token
// auth, grounded on minis/35-jwt-auth-middleware's
// GenerateToken/ValidateToken/AuthMiddleware/RequireRole pattern built on
// golang-jwt/jwt/v5.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/clusterproxy/internal/cluster"
)

// Claims is the token payload issued to admin-API callers.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// GenerateToken signs a token for subject, valid for ttl.
func GenerateToken(subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "clusterproxy-admin",
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenString, rejecting anything not
// signed with HMAC to rule out an algorithm-confusion downgrade.
func ValidateToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse admin token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid admin token")
	}
	return claims, nil
}

// AuthMiddleware requires a "Bearer <token>" Authorization header signed
// with secret, attaching the parsed claims to the request context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := ValidateToken(parts[1], secret)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TopologyView is the JSON shape returned by the dump endpoints.
type TopologyView struct {
	ThreadID       int        `json:"thread_id"`
	Broken         bool       `json:"broken"`
	IsUpdating     bool       `json:"is_updating"`
	UpdateRequired bool       `json:"update_required"`
	Nodes          []NodeView `json:"nodes"`
}

// NodeView is one node's exported shape.
type NodeView struct {
	Name        string   `json:"name"`
	Addr        string   `json:"addr"`
	IsReplica   bool     `json:"is_replica"`
	ReplicateID string   `json:"replicate_id,omitempty"`
	Slots       []uint16 `json:"slots"`
}

// Server serves the read-only topology views for a single worker's
// topology. It holds no lock of its own: the caller must only ever read
// topo from the same goroutine that owns it, or hand in a Duplicate
// meant for concurrent inspection.
type Server struct {
	topo   *cluster.Topology
	secret []byte
}

// New creates a Server backed by topo, whose admin endpoints are gated
// by tokens signed with secret.
func New(topo *cluster.Topology, secret []byte) *Server {
	return &Server{topo: topo, secret: secret}
}

// Handler returns the mux of admin routes, wrapped in AuthMiddleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/topology", s.handleTopology)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return AuthMiddleware(s.secret)(mux)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	view := TopologyView{
		ThreadID:       s.topo.ThreadID,
		Broken:         s.topo.Broken(),
		IsUpdating:     s.topo.IsUpdating(),
		UpdateRequired: s.topo.UpdateRequired(),
	}
	for _, n := range s.topo.Nodes() {
		view.Nodes = append(view.Nodes, NodeView{
			Name:        n.Name,
			Addr:        fmt.Sprintf("%s:%d", n.IP, n.Port),
			IsReplica:   n.IsReplica,
			ReplicateID: n.ReplicateID,
			Slots:       n.Slots,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.topo.Broken() {
		http.Error(w, "topology broken", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
