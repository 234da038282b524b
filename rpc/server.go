package rpc

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/logger"
	"github.com/botho-project/botho/mempool"
	"github.com/botho-project/botho/monetary"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// PeerInfo is the shape network_getPeers reports for one connected peer.
// The gossip/transport layer that actually tracks live connections is out
// of scope (spec §1); Server only needs something that can list them.
type PeerInfo struct {
	ID              string `json:"id"`
	Address         string `json:"address"`
	ProtocolVersion string `json:"protocolVersion"`
	Inbound         bool   `json:"inbound"`
}

// PeerSource lets the out-of-scope P2P layer feed network_getInfo/
// network_getPeers without rpc importing it.
type PeerSource interface {
	Peers() []PeerInfo
}

type noPeers struct{}

func (noPeers) Peers() []PeerInfo { return nil }

// viewKeyRegistration is what exchange_registerViewKey records: a
// scanning service's view key plus an opaque label, so it can be handed
// off to an out-of-scope outbound scanning job.
type viewKeyRegistration struct {
	ViewKeyHex string `json:"viewKey"`
	Label      string `json:"label"`
}

// Server answers the JSON-RPC 2.0 method set of spec §6 over HTTP and a
// Botho node's own state (ledger, mempool, monetary controller, network
// parameters). It holds no write authority over any of them — every
// handler is read-only except tx_submit, which only ever reaches the
// mempool's own admission lock.
type Server struct {
	Ledger     *ledger.Ledger
	Mempool    *mempool.Mempool
	Controller *monetary.Controller
	Params     chaincfg.Params
	Peers      PeerSource
	StartTime  time.Time

	mu       sync.Mutex
	viewKeys []viewKeyRegistration

	upgrader websocket.Upgrader
}

// NewServer constructs a Server bound to a running node's subsystems.
// peers may be nil, in which case network_getPeers always reports none.
func NewServer(l *ledger.Ledger, mp *mempool.Mempool, ctrl *monetary.Controller, params chaincfg.Params, peers PeerSource) *Server {
	if peers == nil {
		peers = noPeers{}
	}
	return &Server{
		Ledger:     l,
		Mempool:    mp,
		Controller: ctrl,
		Params:     params,
		Peers:      peers,
		StartTime:  time.Now(),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// handlerFunc is the signature every method table entry implements,
// mirroring the teacher's commandHandler shape but over raw JSON params
// instead of a pre-parsed btcjson command struct.
type handlerFunc func(s *Server, params json.RawMessage) (interface{}, error)

// methodTable is the dispatch map of spec §6's method set (teacher
// rpcHandlers convention: one string-keyed map, populated once).
var methodTable = map[string]handlerFunc{
	"node_getStatus":            handleNodeGetStatus,
	"getChainInfo":              handleGetChainInfo,
	"getSupplyInfo":             handleGetSupplyInfo,
	"getBlockByHeight":          handleGetBlockByHeight,
	"getMempoolInfo":            handleGetMempoolInfo,
	"estimateFee":               handleEstimateFee,
	"cluster_getWealth":         handleClusterGetWealth,
	"chain_getOutputs":          handleChainGetOutputs,
	"tx_submit":                 handleTxSubmit,
	"tx_get":                    handleTxGet,
	"tx_getStatus":              handleTxGetStatus,
	"address_validate":          handleAddressValidate,
	"minting_getStatus":         handleMintingGetStatus,
	"network_getInfo":           handleNetworkGetInfo,
	"network_getPeers":          handleNetworkGetPeers,
	"exchange_registerViewKey":  handleExchangeRegisterViewKey,
}

// dispatch runs req through the method table, translating handler errors
// into a JSON-RPC error object. A *rpc.Error returned by a handler is
// passed through verbatim (it already carries the right code); any other
// error becomes a generic -32000 server error (spec §7: "storage errors
// are surfaced verbatim up to the RPC boundary, where it becomes a
// generic -32000 and is logged at error level").
func (s *Server) dispatch(req Request) Response {
	if req.JSONRPC != "" && req.JSONRPC != jsonrpcVersion {
		return errorResponse(req.ID, newError(ErrCodeInvalidParams, "unsupported jsonrpc version"))
	}
	handler, ok := methodTable[req.Method]
	if !ok {
		return errorResponse(req.ID, newError(ErrCodeMethodNotFound, "unknown method: "+req.Method))
	}
	result, err := handler(s, req.Params)
	if err != nil {
		if rpcErr, ok := err.(*Error); ok {
			return errorResponse(req.ID, rpcErr)
		}
		if log, ok := logger.Get("RPCS"); ok {
			log.Errorf("rpc method %s failed: %v", req.Method, err)
		}
		return errorResponse(req.ID, newError(ErrCodeServer, err.Error()))
	}
	return successResponse(req.ID, result)
}

// ServeHTTP implements http.Handler directly, accepting either a single
// JSON-RPC request object or a batch array, per spec.md's JSON-RPC 2.0
// framing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, errorResponse(nil, newError(ErrCodeParse, "invalid JSON: "+err.Error())))
		return
	}

	trimmed := firstNonSpace(raw)
	if trimmed == '[' {
		var reqs []Request
		if err := json.Unmarshal(raw, &reqs); err != nil {
			writeJSON(w, errorResponse(nil, newError(ErrCodeParse, "invalid batch: "+err.Error())))
			return
		}
		responses := make([]Response, len(reqs))
		for i, req := range reqs {
			responses[i] = s.dispatch(req)
		}
		writeJSON(w, responses)
		return
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		writeJSON(w, errorResponse(nil, newError(ErrCodeParse, "invalid request: "+err.Error())))
		return
	}
	writeJSON(w, s.dispatch(req))
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleWebSocket upgrades the connection and answers one JSON-RPC
// request per inbound text message, the out-of-scope-but-method-
// answering WS surface spec §6 names.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		var resp Response
		if err := json.Unmarshal(data, &req); err != nil {
			resp = errorResponse(nil, newError(ErrCodeParse, "invalid request: "+err.Error()))
		} else {
			resp = s.dispatch(req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// Router builds the HTTP mux: POST / for JSON-RPC over HTTP, GET /ws for
// the WebSocket surface, matching the teacher's rpcserver.go /
// rpcwebsocket.go split between the two transports sharing one dispatch
// table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/", s).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	return r
}
