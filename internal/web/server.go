package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/sip-protocol/farmd/internal/analyzer"
	"github.com/sip-protocol/farmd/internal/farm"
	"github.com/sip-protocol/farmd/internal/planner"
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/state"
	"github.com/sip-protocol/farmd/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the read-only farm API over HTTP.
type WebServer struct {
	router *mux.Router
	engine *farm.Engine
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, engine *farm.Engine) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		engine: engine,
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/params", ws.handleGetParams).Methods("GET")
	api.HandleFunc("/custody", ws.handleGetCustody).Methods("GET")
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{idx}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{idx}/accounts/{address}", ws.handleGetAccount).Methods("GET")
	api.HandleFunc("/overview", ws.handleGetOverview).Methods("GET")
	api.HandleFunc("/yields", ws.handleGetYields).Methods("GET")
	api.HandleFunc("/plan", ws.handleGetStakePlan).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	if !dbHealthy {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "farmd",
			"version": "1.0.0",
		},
		"farm_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"pool_count":       ws.engine.PoolCount(),
		},
	}

	statusCode := http.StatusOK
	if !dbHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetParams returns the global emission parameters
func (ws *WebServer) handleGetParams(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"parameters": ws.engine.Params(),
		"timestamp":  time.Now().UTC(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetCustody returns the pooled custody balance
func (ws *WebServer) handleGetCustody(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"denom":   ws.engine.Params().StakeDenom,
		"balance": ws.engine.CustodyBalance(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPools returns every registered pool
func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	count := ws.engine.PoolCount()
	pools := make([]types.Pool, 0, count)
	for idx := 0; idx < count; idx++ {
		pool, err := ws.engine.PoolInfo(types.PoolIndex(idx))
		if err != nil {
			webLogger.Error().Err(err).Int("pool_index", idx).Msg("Failed to get pool")
			ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve pools")
			return
		}
		pools = append(pools, pool)
	}

	response := map[string]interface{}{
		"pools": pools,
		"count": len(pools),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPool returns a specific pool by index
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	idx, ok := ws.poolIndexFromRequest(w, r)
	if !ok {
		return
	}

	pool, err := ws.engine.PoolInfo(idx)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, pool)
}

// handleGetAccount returns one staking position with its reward
// projections: the stale pending view and the live one at the current
// clock.
func (ws *WebServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	idx, ok := ws.poolIndexFromRequest(w, r)
	if !ok {
		return
	}
	address := mux.Vars(r)["address"]

	account, err := ws.engine.AccountInfo(idx, address)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}
	projected, err := ws.engine.ProjectedPending(idx, address)
	if err != nil {
		webLogger.Error().Err(err).Uint64("pool_index", uint64(idx)).Msg("Failed to project pending rewards")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to project pending rewards")
		return
	}

	response := map[string]interface{}{
		"pool_index":        idx,
		"address":           address,
		"account":           account,
		"pending":           ws.engine.Pending(idx, address),
		"projected_pending": projected,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetOverview returns the batched per-pool projection for one
// account: ?address=...&pools=0,1,2 with at most five pools.
func (ws *WebServer) handleGetOverview(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	poolsParam := r.URL.Query().Get("pools")
	if address == "" || poolsParam == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "address and pools query parameters are required")
		return
	}

	var idxs []types.PoolIndex
	for _, part := range strings.Split(poolsParam, ",") {
		idx, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool index: "+part)
			return
		}
		idxs = append(idxs, types.PoolIndex(idx))
	}

	overview, err := ws.engine.Overview(address, idxs)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	response := map[string]interface{}{
		"address": address,
		"pools":   overview,
		"count":   len(overview),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetYields returns the projected daily emission per pool plus
// the yield-ranked pool indices.
func (ws *WebServer) handleGetYields(w http.ResponseWriter, r *http.Request) {
	totalWeight := ws.engine.TotalWeight()
	if totalWeight.IsZero() {
		// Nothing emits before the first weighted pool is registered.
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"yields": []analyzer.PoolYield{},
			"top":    []types.PoolIndex{},
		})
		return
	}

	yields, err := analyzer.CalculatePoolYields(ws.engine.Pools(), totalWeight, ws.engine.Params())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to project pool yields")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to project pool yields")
		return
	}
	top, err := analyzer.SelectTopPools(yields, types.MaxOverviewPools)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to rank pool yields")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to rank pool yields")
		return
	}

	response := map[string]interface{}{
		"yields": yields,
		"top":    top,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetStakePlan recommends a pool for ?amount=N.
func (ws *WebServer) handleGetStakePlan(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	amount, ok := sdkmath.NewIntFromString(amountStr)
	if !ok || !amount.IsPositive() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "amount query parameter must be a positive integer")
		return
	}

	totalWeight := ws.engine.TotalWeight()
	if totalWeight.IsZero() {
		ws.writeErrorResponse(w, http.StatusConflict, "No weighted pools are registered yet")
		return
	}
	yields, err := analyzer.CalculatePoolYields(ws.engine.Pools(), totalWeight, ws.engine.Params())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to project pool yields")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to project pool yields")
		return
	}
	plan, err := planner.PlanStake(yields, amount)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to compute stake plan")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to compute stake plan")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, plan)
}

// handleGetEvents returns the most recent audit events
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 500 {
			limit = parsedLimit
		}
	}

	events, err := state.RecentEvents(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	response := map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

func (ws *WebServer) poolIndexFromRequest(w http.ResponseWriter, r *http.Request) (types.PoolIndex, bool) {
	idxStr := mux.Vars(r)["idx"]
	idx, err := strconv.ParseUint(idxStr, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool index")
		return 0, false
	}
	return types.PoolIndex(idx), true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
