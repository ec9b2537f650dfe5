package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"netshield/auth"
	"netshield/chat"
	"netshield/classifier"
	"netshield/db"
	"netshield/history"
	"netshield/models"
	"netshield/netshield"
	"netshield/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

const maxUploadBytes = 64 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
}

// preflight handles OPTIONS and method gating; returns true when the request
// was fully answered.
func preflight(w http.ResponseWriter, r *http.Request, method, allowMethods string) bool {
	setCORS(w, allowMethods)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	if r.Method != method {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return true
	}
	return false
}

// callerID resolves the optional bearer token to an account ID. Anonymous
// and invalid tokens both come back nil; identity never blocks analysis.
func callerID(r *http.Request, tokens auth.TokenParser) *int64 {
	raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil
	}
	uid, ok := tokens.ParseCallerID(raw)
	if !ok {
		return nil
	}
	return &uid
}

func classifierStatus(err error) (int, string) {
	var clsErr *classifier.Error
	if errors.As(err, &clsErr) {
		if clsErr.Status == 0 {
			return http.StatusServiceUnavailable, "Gatekeeper Error: AI engine unreachable"
		}
		return http.StatusInternalServerError, "Gatekeeper Error: " + clsErr.Message
	}
	return http.StatusInternalServerError, "internal error"
}

func newHealthHandler(cls *classifier.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodGet, "GET, OPTIONS") {
			return
		}

		engine := "up"
		if err := cls.HealthCheck(r.Context()); err != nil {
			engine = "down"
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "up",
			"bridge": "Gatekeeper",
			"engine": engine,
		})
	}
}

func newHistoryHandler(store netshield.HistoryStore, tokens auth.TokenParser) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodGet, "GET, OPTIONS") {
			return
		}

		ctx := r.Context()

		var (
			records []models.AnalysisRecord
			err     error
		)
		if uid := callerID(r, tokens); uid != nil {
			records, err = store.RecordsByUser(ctx, *uid)
		} else {
			records, err = store.AllRecords(ctx)
		}
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to load history", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load history")
			return
		}

		if records == nil {
			records = []models.AnalysisRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func newGeoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodGet, "GET, OPTIONS") {
			return
		}

		address := strings.TrimSpace(r.URL.Query().Get("ip"))
		if address == "" {
			writeJSONError(w, http.StatusBadRequest, "ip query parameter is required")
			return
		}

		writeJSON(w, http.StatusOK, netshield.Locate(address))
	}
}

// readUpload pulls the "file" part out of a multipart request.
func readUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, payload, nil
}

func newAnalyzeFileHandler(pipeline *netshield.Pipeline, tokens auth.TokenParser, broadcast func(netshield.AnalysisResult)) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		filename, payload, err := readUpload(r)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read upload", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "file is required")
			return
		}

		result, err := pipeline.AnalyzeUpload(ctx, netshield.Upload{
			Filename: filename,
			Payload:  payload,
		}, callerID(r, tokens))
		if err != nil {
			status, message := classifierStatus(err)
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "analysis failed", slog.Any("error", err), slog.String("filename", filename))
			writeJSONError(w, status, message)
			return
		}

		logger.InfoContext(ctx, "analysis complete",
			slog.String("filename", filename),
			slog.String("prediction", result.Prediction),
			slog.Float64("confidence", result.Confidence),
			slog.String("dataset", string(result.Dataset)),
		)

		if broadcast != nil {
			broadcast(result)
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// newAnalyzeRouteHandler serves /api/netshield/analyze/{dataset}/{type} where
// the caller pins the dataset family and model kind instead of relying on
// header detection.
func newAnalyzeRouteHandler(pipeline *netshield.Pipeline, tokens auth.TokenParser, broadcast func(netshield.AnalysisResult)) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/netshield/analyze/"), "/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			writeJSONError(w, http.StatusNotFound, "expected /api/netshield/analyze/{dataset}/{type}")
			return
		}

		filename, payload, err := readUpload(r)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read upload", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "file is required")
			return
		}

		result, err := pipeline.AnalyzeUpload(ctx, netshield.Upload{
			Filename: filename,
			Payload:  payload,
			Dataset:  parts[0],
			Model:    parts[1],
		}, callerID(r, tokens))
		if err != nil {
			status, message := classifierStatus(err)
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "analysis failed", slog.Any("error", err), slog.String("filename", filename))
			writeJSONError(w, status, message)
			return
		}

		if broadcast != nil {
			broadcast(result)
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func newAnalyzeManualHandler(pipeline *netshield.Pipeline, tokens auth.TokenParser) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		var features models.ManualFeatures
		if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
			logger.ErrorContext(ctx, "failed to parse manual features", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if len(features) == 0 {
			writeJSONError(w, http.StatusBadRequest, "at least one feature is required")
			return
		}

		result, err := pipeline.AnalyzeManual(ctx, features, callerID(r, tokens))
		if err != nil {
			status, message := classifierStatus(err)
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "manual analysis failed", slog.Any("error", err))
			writeJSONError(w, status, message)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func newAgentHandler(agent *netshield.Agent) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		summary, err := agent.Summarize(ctx, req.Prompt)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "agent summary failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to build risk summary")
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func newAssistantHandler(assistant *chat.GeminiClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		if assistant == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "assistant is not configured")
			return
		}

		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			writeJSONError(w, http.StatusBadRequest, "message is required")
			return
		}

		reply, err := assistant.GenerateResponse(req.Message)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(r.Context(), "assistant request failed", slog.Any("error", err))
			writeJSONError(w, http.StatusBadGateway, "assistant request failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"response": reply})
	}
}

func newSignupHandler(accounts *auth.Service) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		user, token, err := accounts.Signup(ctx, req.Username, req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrEmailTaken):
			writeJSONError(w, http.StatusConflict, err.Error())
		case err != nil:
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "signup failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "signup failed")
		default:
			writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
		}
	}
}

func newLoginHandler(accounts *auth.Service) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodPost, "POST, OPTIONS") {
			return
		}

		ctx := r.Context()

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		user, token, err := accounts.Login(ctx, req.Username, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSONError(w, http.StatusUnauthorized, err.Error())
		case err != nil:
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "login failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "login failed")
		default:
			writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
		}
	}
}

func newMeHandler(accounts *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodGet, "GET, OPTIONS") {
			return
		}

		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := accounts.Me(r.Context(), token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func newAuthPingHandler(tokens auth.TokenParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, http.MethodGet, "GET, OPTIONS") {
			return
		}

		authenticated := callerID(r, tokens) != nil
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	ctx := context.Background()

	tokens, err := auth.NewManagerFromEnv()
	if err != nil {
		log.Fatalf("failed to configure token manager: %v", err)
	}

	dbclient, err := db.NewDBClient(ctx)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer dbclient.Close()

	var store netshield.HistoryStore = dbclient
	if db.UseJSONHistory() {
		store = history.NewStore(db.HistoryFilePath())
		log.Println("Using JSON file history store")
	}

	accounts := auth.NewService(dbclient, tokens)

	engineURL := utils.GetEnv("AI_ENGINE_URL", "http://localhost:8000")
	timeoutStr := utils.GetEnv("CLASSIFY_TIMEOUT_SECONDS", "30")
	timeoutSec, err := strconv.Atoi(timeoutStr)
	if err != nil {
		log.Fatalf("invalid CLASSIFY_TIMEOUT_SECONDS value '%s': %v", timeoutStr, err)
	}
	cls := classifier.NewClient(engineURL, time.Duration(timeoutSec)*time.Second)

	pipeline := netshield.NewPipeline(cls, store, "ml")
	agent := netshield.NewAgent(store)

	var assistant *chat.GeminiClient
	if utils.GetEnv("GEMINI_API_KEY", "") != "" {
		assistant, err = chat.NewGeminiClient()
		if err != nil {
			log.Printf("Failed to initialize assistant: %v\n", err)
		}
	} else {
		log.Println("GEMINI_API_KEY not set, assistant endpoint disabled")
	}

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	controller := newSocketController(server, agent)
	controller.register()

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/netshield/health", newHealthHandler(cls))
	mux.HandleFunc("/api/netshield/history", newHistoryHandler(store, tokens))
	mux.HandleFunc("/api/netshield/geo", newGeoHandler())
	mux.HandleFunc("/api/netshield/analyze-file", newAnalyzeFileHandler(pipeline, tokens, controller.broadcastAnalysis))
	mux.HandleFunc("/api/netshield/analyze/", newAnalyzeRouteHandler(pipeline, tokens, controller.broadcastAnalysis))
	mux.HandleFunc("/api/netshield/analyze-manual", newAnalyzeManualHandler(pipeline, tokens))
	mux.HandleFunc("/api/netshield/agent", newAgentHandler(agent))
	mux.HandleFunc("/api/netshield/assistant", newAssistantHandler(assistant))
	mux.HandleFunc("/api/auth/signup", newSignupHandler(accounts))
	mux.HandleFunc("/api/auth/login", newLoginHandler(accounts))
	mux.HandleFunc("/api/auth/me", newMeHandler(accounts))
	mux.HandleFunc("/api/auth/ping", newAuthPingHandler(tokens))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
