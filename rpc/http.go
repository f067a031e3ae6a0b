package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rarible/eclipse-program-library/native/editions"
	"github.com/rarible/eclipse-program-library/native/editionscontrols"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitWindow = time.Minute
	maxMintsPerIP   = 30
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

type rateLimiter struct {
	count       int
	windowStart time.Time
}

// Server exposes the editions engines over JSON-RPC 2.0.
type Server struct {
	controls *editionscontrols.Engine
	ledger   *editions.Engine

	mu           sync.Mutex
	rateLimiters map[string]*rateLimiter
	authToken    string
}

// NewServer wires the RPC surface around the two engines. Mutating methods
// require the bearer token from ECLIPSE_RPC_TOKEN when one is set.
func NewServer(controls *editionscontrols.Engine, ledger *editions.Engine) *Server {
	token := strings.TrimSpace(os.Getenv("ECLIPSE_RPC_TOKEN"))
	return &Server{
		controls:     controls,
		ledger:       ledger,
		rateLimiters: make(map[string]*rateLimiter),
		authToken:    token,
	}
}

// Start serves the JSON-RPC endpoint on the supplied address.
func (s *Server) Start(addr string) error {
	fmt.Printf("Starting JSON-RPC server on %s\n", addr)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeResult(w http.ResponseWriter, id int, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id int, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	want := "Bearer " + s.authToken
	if len(header) == len(want) && subtle.ConstantTimeCompare([]byte(header), []byte(want)) == 1 {
		return nil
	}
	return &RPCError{Code: codeUnauthorized, Message: "unauthorized"}
}

func (s *Server) allowMint(remote string) bool {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.rateLimiters[host]
	now := time.Now()
	if !ok || now.Sub(limiter.windowStart) >= rateLimitWindow {
		s.rateLimiters[host] = &rateLimiter{count: 1, windowStart: now}
		return true
	}
	if limiter.count >= maxMintsPerIP {
		return false
	}
	limiter.count++
	return true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, 0, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, codeParseError, "invalid JSON payload", nil)
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "jsonrpc version must be 2.0", nil)
		return
	}

	switch req.Method {
	case "editions_deploy":
		s.handleDeploy(w, r, &req)
	case "editions_addPhase":
		s.handleAddPhase(w, r, &req)
	case "editions_mint":
		s.handleMint(w, r, &req)
	case "editions_updateRoyalties":
		s.handleUpdateRoyalties(w, r, &req)
	case "editions_updatePlatformFee":
		s.handleUpdatePlatformFee(w, r, &req)
	case "editions_getDeployment":
		s.handleGetDeployment(w, &req)
	case "editions_getControls":
		s.handleGetControls(w, &req)
	case "editions_getMinterStats":
		s.handleGetMinterStats(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func decodeSingleParam(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return nil
}
