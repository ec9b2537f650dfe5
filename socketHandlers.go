package main

import (
	"context"
	"log"
	"log/slog"

	"netshield/netshield"
	"netshield/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	server *socketio.Server
	agent  *netshield.Agent
}

func newSocketController(server *socketio.Server, agent *netshield.Agent) *socketController {
	return &socketController{server: server, agent: agent}
}

func (c *socketController) register() {
	c.server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		socket.Emit("status", map[string]string{"status": "up"})
		return nil
	})

	c.server.OnEvent("/", "requestRiskSummary", func(socket socketio.Conn, prompt string) {
		log.Printf("requestRiskSummary received from %s\n", socket.ID())
		c.handleRiskSummary(socket, prompt)
	})

	c.server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	c.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})
}

func (c *socketController) handleRiskSummary(socket socketio.Conn, prompt string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	summary, err := c.agent.Summarize(ctx, prompt)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to build risk summary", slog.Any("error", err))
		socket.Emit("riskSummaryError", map[string]string{"message": "failed to build risk summary"})
		return
	}

	logger.InfoContext(ctx, "emitting risk summary",
		slog.String("socketID", socket.ID()),
		slog.String("riskLevel", summary.RiskLevel),
		slog.Int("totalIncidents", summary.TotalIncidents),
	)
	socket.Emit("riskSummary", summary)
}

// broadcastAnalysis fans a fresh analysis result out to all dashboard
// clients.
func (c *socketController) broadcastAnalysis(result netshield.AnalysisResult) {
	c.server.BroadcastToNamespace("/", "analysis", result)
}
