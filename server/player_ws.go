package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shriram-30/SpotifyClone/core/player"
	"github.com/shriram-30/SpotifyClone/core/search"
	"github.com/shriram-30/SpotifyClone/logger"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = 30 * time.Second
	wsReadLimit    = 4096
	wsSendBuffer   = 32
	stateSubBuffer = 8
)

// WS 消息类型
const (
	wsTypeState        = "state"
	wsTypeSearch       = "search"
	wsTypeSearchCancel = "search_cancel"
	wsTypePing         = "ping"
	wsTypePong         = "pong"
	wsTypeError        = "error"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type searchData struct {
	Query string `json:"query"`
}

// playerConn 一条 /ws/player 连接：推送会话状态，并承载防抖搜索
type playerConn struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

// enqueue 非阻塞写入发送队列，队列满时丢弃
func (c *playerConn) enqueue(msgType string, payload interface{}) {
	msg := WSMessage{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("[WS] 序列化消息失败", logger.String("type", msgType), logger.ErrorField(err))
			return
		}
		msg.Data = data
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- raw:
	default:
		logger.Warn("[WS] 发送队列已满，丢弃消息",
			logger.String("conn", c.id),
			logger.String("type", msgType))
	}
}

// PlayerWebSocketHandler 推送当前用户的播放状态
func (h *APIHandler) PlayerWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[WS] websocket upgrade failed", logger.ErrorField(err))
		return
	}

	c := &playerConn{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
	}
	session := h.players.Session(userID)
	states, unsubscribe := session.Subscribe(stateSubBuffer)
	searcher := search.NewSearcher(h.catalog, h.searchDebounce, func(u search.Update) {
		c.enqueue(wsTypeSearch, u)
	})

	username, _ := GetUsernameFromContext(r.Context())
	logger.Info("[WS] 播放器连接建立",
		logger.String("conn", c.id),
		logger.Int64("userId", userID),
		logger.String("username", username))

	go c.forwardStates(states)
	go c.writePump()

	c.readPump(searcher)

	searcher.Close()
	unsubscribe()
	close(c.done)
	logger.Info("[WS] 播放器连接断开", logger.String("conn", c.id), logger.Int64("userId", userID))
}

// forwardStates 把会话快照转发到发送队列，订阅取消后退出
func (c *playerConn) forwardStates(states <-chan player.SessionState) {
	for st := range states {
		c.enqueue(wsTypeState, st)
	}
}

// readPump 读取客户端消息，连接断开时返回
func (c *playerConn) readPump(searcher *search.Searcher) {
	defer c.conn.Close()

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[WS] websocket read error",
					logger.ErrorField(err),
					logger.String("conn", c.id))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.enqueue(wsTypeError, envelope{"message": "invalid message format"})
			continue
		}

		switch msg.Type {
		case wsTypePing:
			c.enqueue(wsTypePong, nil)
		case wsTypeSearch:
			var data searchData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.enqueue(wsTypeError, envelope{"message": "invalid search payload"})
				continue
			}
			searcher.Submit(data.Query)
		case wsTypeSearchCancel:
			searcher.Cancel()
		default:
			c.enqueue(wsTypeError, envelope{"message": "unknown message type: " + msg.Type})
		}
	}
}

// writePump 写出发送队列并定时发送 ping
func (c *playerConn) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
