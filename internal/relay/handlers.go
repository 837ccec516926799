package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/yamux"

	"pairlink/internal/constants"
	"pairlink/internal/security"
)

type roomRequest struct {
	Code     string `json:"code"`
	Hostname string `json:"hostname,omitempty"`
}

type roomResponse struct {
	Code      string `json:"code"`
	HubURL    string `json:"hub_url"`
	ClientURL string `json:"client_url"`
	ExpiresIn string `json:"expires_in"`
}

// HandleRooms registers a rendezvous room. Hubs call this before
// parking their leg; clients learn the code out of band (it is the hub
// identity they paired with).
func (rl *Relay) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRoomBodySize)

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, constants.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	if !security.ValidateRoomCode(req.Code) {
		http.Error(w, constants.MsgInvalidRoom, http.StatusBadRequest)
		return
	}

	now := time.Now()
	room := &Room{
		Code:      req.Code,
		Hostname:  security.SanitizeInput(req.Hostname),
		CreatedAt: now,
		ExpiresAt: now.Add(constants.RoomTTL),
	}
	rl.Registry.Save(room)

	ip := security.GetClientIP(r)
	if rl.Audit != nil {
		rl.Audit.LogRoomRegister(ip, room.Code)
	}
	log.Printf("🔔 Room registered: %s (expires in %s)", room.Code, constants.RoomTTL)

	base := requestBase(r)
	resp := roomResponse{
		Code:      room.Code,
		HubURL:    base + constants.EndpointWebSocket + "?role=hub&code=" + room.Code,
		ClientURL: base + constants.EndpointWebSocket + "?role=client&code=" + room.Code,
		ExpiresIn: constants.RoomTTL.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleWebSocket attaches either leg of a room: the hub parks a yamux
// session, a client gets one stream opened on it and its frames copied
// both ways.
func (rl *Relay) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := security.GetClientIP(r)

	if !rl.BruteProtector.Check(clientIP) {
		if rl.Audit != nil {
			rl.Audit.LogBruteForce(clientIP, constants.MaxJoinAttempts)
		}
		http.Error(w, "Too many failed attempts. Try again later.", http.StatusTooManyRequests)
		return
	}

	if !rl.ConnLimiter.TryConnect(clientIP) {
		if rl.Audit != nil {
			rl.Audit.LogConnectionLimit(clientIP)
		}
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}
	defer rl.ConnLimiter.Disconnect(clientIP)

	role := r.URL.Query().Get("role")
	code := r.URL.Query().Get("code")

	if !security.ValidateRole(role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}
	if !security.ValidateRoomCode(code) {
		rl.BruteProtector.RecordFailure(clientIP)
		http.Error(w, constants.MsgInvalidRoom, http.StatusBadRequest)
		return
	}

	if _, ok := rl.Registry.Get(code); !ok {
		rl.BruteProtector.RecordFailure(clientIP)
		if rl.Audit != nil {
			rl.Audit.LogInvalidRoom(clientIP, code)
		}
		http.Error(w, constants.MsgRoomNotFound, http.StatusNotFound)
		return
	}
	rl.BruteProtector.RecordSuccess(clientIP)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  constants.WSBufferSize,
		WriteBufferSize: constants.WSBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(int64(constants.MaxWSMessageSize))

	switch role {
	case "hub":
		rl.handleHubLeg(conn, code, clientIP)
	case "client":
		rl.handleClientLeg(conn, code, clientIP)
	}
}

func (rl *Relay) handleHubLeg(conn *websocket.Conn, code, clientIP string) {
	session, err := yamux.Server(newWSConn(conn), nil)
	if err != nil {
		log.Printf("❌ Hub mux error for %s: %v", code, err)
		conn.Close()
		return
	}

	rl.registerHub(code, session)
	if rl.Audit != nil {
		rl.Audit.LogHubConnect(clientIP, code)
	}
	log.Printf("🔌 Hub parked: %s", code)

	<-session.CloseChan()

	rl.unregisterHub(code, session)
	if rl.Audit != nil {
		rl.Audit.LogHubDisconnect(clientIP, code, "session closed")
	}
	log.Printf("🔌 Hub left: %s", code)
}

func (rl *Relay) handleClientLeg(conn *websocket.Conn, code, clientIP string) {
	defer conn.Close()

	session, ok := rl.hubSession(code)
	if !ok {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub not connected"),
			time.Now().Add(time.Second))
		return
	}

	stream, err := session.Open()
	if err != nil {
		log.Printf("❌ Failed to open stream to hub %s: %v", code, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(time.Second))
		return
	}
	defer stream.Close()

	if rl.Audit != nil {
		rl.Audit.LogClientJoin(clientIP, code)
	}
	log.Printf("👤 Client bridged into %s", code)

	bridge(conn, stream)
	log.Printf("👤 Client left %s", code)
}

// bridge copies frames between a client websocket and a hub stream.
// On the stream the envelopes travel newline delimited, so each line
// maps to exactly one websocket text frame and JSON decoding on either
// end never sees a partial document.
func bridge(ws *websocket.Conn, stream net.Conn) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				stream.Close()
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			data = append(data, '\n')
			if _, err := stream.Write(data); err != nil {
				return
			}
		}
	}()

	buf := getBuffer()
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(buf, constants.MaxWSMessageSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, line); err != nil {
			break
		}
	}
	putBuffer(buf)

	ws.Close()
	stream.Close()
	<-done
}

func requestBase(r *http.Request) string {
	scheme := "ws"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}
	return scheme + "://" + r.Host
}
