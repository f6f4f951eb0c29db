package network

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ambula-labs/ambula/core"
	"github.com/ambula-labs/ambula/crypto"
)

// SignerOpts encapsulates the options needed by the Signer.
type SignerOpts struct {
	PrivateKey crypto.PrivateKey
	Scheme     core.SignatureScheme
	Chain      *core.Blockchain // nil disables the dependency check
	Logger     log.Logger
}

// A Signer is the service side of the signature oracle: an http.Handler
// answering the JSON-RPC "sign" method. It validates that the challenge
// references a dependency on its chain and that the requester is not
// double-touring, then signs the raw challenge payload.
//
// The geth rpc server cannot expose a bare method name (it mandates
// namespace_method), so the handler decodes the envelope itself; the
// client side still talks through rpc.Client.
type Signer struct {
	SignerOpts
	tracker *MessageTracker
}

// NewSigner instantiates a Signer from a SignerOpts.
func NewSigner(opts SignerOpts) *Signer {
	if opts.Logger == nil {
		opts.Logger = log.New("module", "signer")
	}

	return &Signer{
		SignerOpts: opts,
		tracker:    NewMessageTracker(),
	}
}

// Tracker returns the Signer's double-touring tracker so the host can
// clear dependencies once blocks are appended.
func (s *Signer) Tracker() *MessageTracker {
	return s.tracker
}

type rpcRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  []hexutil.Bytes `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *hexutil.Bytes  `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler.
func (s *Signer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, nil, -32700, "parse error")
		return
	}

	if req.Method != SIGN_METHOD {
		writeRPCError(w, req.ID, -32601, fmt.Sprintf("unknown method %q", req.Method))
		return
	}
	if len(req.Params) != 1 {
		writeRPCError(w, req.ID, -32602, "expected a single payload parameter")
		return
	}

	sig, err := s.sign(requesterOf(r), req.Params[0])
	if err != nil {
		s.Logger.Warn("refused sign request", "from", requesterOf(r), "err", err)
		writeRPCError(w, req.ID, -32000, err.Error())
		return
	}

	result := hexutil.Bytes(sig)
	writeRPCResponse(w, rpcResponse{
		Jsonrpc: "2.0",
		ID:      req.ID,
		Result:  &result,
	})
}

// sign validates a challenge payload and signs it.
func (s *Signer) sign(requester string, payload []byte) (crypto.Signature, error) {
	_, dependency, message, err := core.DecodeChallenge(payload)
	if err != nil {
		return nil, err
	}

	if s.Chain != nil && !s.Chain.OnChain(dependency) {
		return nil, fmt.Errorf("dependency %s is not on this chain", dependency.String()[:8])
	}

	if err := s.tracker.CheckAndRecord(requester, dependency, message); err != nil {
		return nil, err
	}

	return s.Scheme.Sign(s.PrivateKey, payload)
}

// requesterOf identifies the requesting peer by the host part of its
// remote address.
func requesterOf(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, msg string) {
	writeRPCResponse(w, rpcResponse{
		Jsonrpc: "2.0",
		ID:      id,
		Error: &rpcError{
			Code:    code,
			Message: msg,
		},
	})
}

func writeRPCResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
