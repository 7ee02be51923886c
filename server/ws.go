package server

import (
	"net/http"
	"time"

	"provider-dashboard/core"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var (
	WsWriteTimeout = 10 * time.Second
	WsPingInterval = 30 * time.Second
)

// tx sinks hold the replayed backlog plus a little headroom
const txSinkBuffer = 80

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	u := upgrader
	u.CheckOrigin = s.checkOrigin
	return u.Upgrade(w, r, nil)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// chanSink queues router messages without ever blocking the router.
type chanSink chan *core.Message

func (c chanSink) QueueMessage(msg *core.Message) {
	select {
	case c <- msg:
	default:
	}
}

// readLoop discards client frames and closes done once the client goes away.
func readLoop(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return done
}

func writeFrame(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(WsWriteTimeout))
	return conn.WriteJSON(v)
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WsWriteTimeout))
}

// handleTxStream streams the statuses of one transaction until it is done.
func (s *Server) handleTxStream(w http.ResponseWriter, r *http.Request) {
	txId := chi.URLParam(r, "id")
	if _, _, err := s.backend.Router().History(txId); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := s.upgrade(w, r)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sink := make(chanSink, txSinkBuffer)
	unlisten, err := s.backend.Router().Listen(txId, sink)
	if err != nil {
		closeNormal(conn)
		return
	}
	defer unlisten()

	closed := readLoop(conn)
	ping := time.NewTicker(WsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WsWriteTimeout)); err != nil {
				return
			}
		case msg := <-sink:
			if err := writeFrame(conn, newTxMessage(msg)); err != nil {
				s.log.Debug("tx stream write failed", "tx", txId, "err", err)
				return
			}
			if msg.Reason.Terminal() {
				closeNormal(conn)
				return
			}
		}
	}
}

// offer replaces whatever state is still pending in ch with st.
func offer(ch chan core.State, st core.State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// handleStateStream pushes the dashboard state on every change.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade(w, r)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates := make(chan core.State, 1)
	unsubscribe := s.backend.Store().Subscribe(func(st core.State) {
		offer(updates, st)
	})
	defer unsubscribe()

	closed := readLoop(conn)
	ping := time.NewTicker(WsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WsWriteTimeout)); err != nil {
				return
			}
		case st := <-updates:
			if err := writeFrame(conn, st); err != nil {
				s.log.Debug("state stream write failed", "err", err)
				return
			}
		}
	}
}
