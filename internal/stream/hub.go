package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

const (
	writeWait      = 10 * time.Second
	requestWait    = 30 * time.Second
	maxMessageSize = 512
	maxInterval    = time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StockSource loads the daily bars a session replays.
type StockSource interface {
	GetEODData(ctx context.Context, ticker string, start, end time.Time) ([]models.StockData, error)
}

// Request is the single message a client sends after connecting.
type Request struct {
	Ticker         string `json:"ticker"`
	Start          string `json:"start"`
	End            string `json:"end"`
	UpdateInterval int    `json:"updateInterval"`
}

// Hub replays a ticker's daily bars to each WebSocket client, one frame per
// bar, pausing UpdateInterval milliseconds between frames.
type Hub struct {
	source StockSource
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

func NewHub(source StockSource, logger *logging.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		source:   source,
		logger:   logger.Component("stream"),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]context.CancelFunc),
	}
}

// Stop cancels every running session and waits for them to close.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()
	h.wg.Wait()
}

// Sessions returns the number of connected clients.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// ServeWS upgrades the connection and runs the session until the stream
// finishes, the client goes away or the hub stops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "stock data hub is shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(h.ctx)
	if !h.add(id, cancel) {
		cancel()
		closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		conn.Close()
		return
	}
	defer func() {
		h.remove(id)
		cancel()
		conn.Close()
		h.wg.Done()
	}()

	log := h.logger.With().Str("session", id).Logger()
	log.Debug().Msg("Stock data client connected")

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(requestWait))
	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid stock data request")
		closeWith(conn, websocket.CloseUnsupportedData, "expected {ticker, start, end, updateInterval}")
		return
	}
	conn.SetReadDeadline(time.Time{})

	start, end, err := req.dates()
	if err != nil {
		log.Warn().Err(err).Str("ticker", req.Ticker).Msg("Invalid stock data request")
		closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	// Any further read error means the client has gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = h.replay(ctx, conn, req.Ticker, start, end, req.interval())
	switch {
	case err == nil:
		closeWith(conn, websocket.CloseNormalClosure, models.StreamFinished)
		log.Debug().Str("ticker", req.Ticker).Msg("Stock data stream finished")
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		if h.ctx.Err() != nil {
			closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		}
		log.Debug().Str("ticker", req.Ticker).Msg("Stock data stream cancelled")
	default:
		log.Error().Err(err).Str("ticker", req.Ticker).Msg("Stock data stream failed")
		closeWith(conn, websocket.CloseInternalServerErr, "failed to load stock data")
	}
}

// replay writes Starting, then Streaming frames, then a Finished frame.
func (h *Hub) replay(ctx context.Context, conn *websocket.Conn, ticker string, start, end time.Time, interval time.Duration) error {
	stocks, err := h.source.GetEODData(ctx, ticker, start, end)
	if err != nil {
		return err
	}

	status := models.StreamStarting
	for i := range stocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := models.StockOutput{Status: status, Stock: &stocks[i], TotalDataPoints: len(stocks)}
		if err := writeFrame(conn, frame); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		status = models.StreamStreaming
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}

	return writeFrame(conn, models.StockOutput{Status: models.StreamFinished, TotalDataPoints: len(stocks)})
}

// add registers a session unless the hub has stopped.
func (h *Hub) add(id string, cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return false
	}
	h.wg.Add(1)
	h.sessions[id] = cancel
	return true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (r Request) dates() (time.Time, time.Time, error) {
	if strings.TrimSpace(r.Ticker) == "" {
		return time.Time{}, time.Time{}, errors.New("ticker is required")
	}
	start, err := parseDate(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseDate(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end is before start")
	}
	return start, end, nil
}

func (r Request) interval() time.Duration {
	d := time.Duration(r.UpdateInterval) * time.Millisecond
	if d < 0 {
		return 0
	}
	return min(d, maxInterval)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeFrame(conn *websocket.Conn, frame models.StockOutput) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
