package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/arcanaland/dexmatch/internal/game"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client action types.
const (
	ActionStart = "start"
	ActionFlip  = "flip"
	ActionPower = "power"
	ActionReset = "reset"
)

// Action is a client message.
type Action struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Index      int    `json:"index"`
}

// Message is pushed to the client after every session event or rejected action.
type Message struct {
	Type    string         `json:"type"`
	Event   game.EventKind `json:"event,omitempty"`
	State   *game.Snapshot `json:"state,omitempty"`
	Message string         `json:"message,omitempty"`
}

// stringToIntHook lets clients send numeric fields as strings.
func stringToIntHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from == reflect.String && to == reflect.Int {
			return strconv.Atoi(data.(string))
		}
		return data, nil
	}
}

// DecodeAction parses a raw client message.
func DecodeAction(raw []byte) (Action, error) {
	msgMap := make(map[string]interface{})
	if err := json.Unmarshal(raw, &msgMap); err != nil {
		return Action{}, fmt.Errorf("decode message: %w", err)
	}

	var action Action
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToIntHook(),
		WeaklyTypedInput: true,
		Result:           &action,
		TagName:          "json",
	})
	if err != nil {
		return Action{}, err
	}
	if err := decoder.Decode(msgMap); err != nil {
		return Action{}, fmt.Errorf("decode action: %w", err)
	}
	if action.Type == "" {
		return Action{}, errors.New("decode action: missing type")
	}
	return action, nil
}

// outbox queues messages for the connection's single writer. push never blocks, so it is safe
// to call from the session notifier.
type outbox struct {
	mu     sync.Mutex
	queue  []Message
	signal chan struct{}
}

func newOutbox() *outbox {
	return &outbox{signal: make(chan struct{}, 1)}
}

func (o *outbox) push(m Message) {
	o.mu.Lock()
	o.queue = append(o.queue, m)
	o.mu.Unlock()
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	return out
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := s.logger.With(zap.String("conn", connID))
	logger.Info("client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := newOutbox()
	opts := append([]game.Option{
		game.WithLogger(logger),
		game.WithNotifier(func(e game.Event) {
			snap := e.Snapshot
			out.push(Message{Type: "event", Event: e.Kind, State: &snap})
		}),
	}, s.opts.SessionOptions...)
	session := game.NewSession(s.opts.Dealer, opts...)
	defer session.Reset()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, conn, out, logger)
	}()

	if s.opts.CatalogErr != nil {
		out.push(Message{Type: "error", Message: s.opts.CatalogErr.Error()})
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Info("client disconnected", zap.Error(err))
			break
		}
		action, err := DecodeAction(raw)
		if err != nil {
			out.push(Message{Type: "error", Message: err.Error()})
			continue
		}
		if err := s.dispatch(ctx, session, action, out, logger); err != nil {
			out.push(Message{Type: "error", Message: err.Error()})
		}
	}

	cancel()
	wg.Wait()
}

func (s *Server) dispatch(ctx context.Context, session *game.Session, action Action, out *outbox, logger *zap.Logger) error {
	switch action.Type {
	case ActionStart:
		if s.opts.CatalogErr != nil {
			return s.opts.CatalogErr
		}
		cfg, err := game.LookupDifficulty(action.Difficulty)
		if err != nil {
			return err
		}
		// dealing blocks on the network; keep reading so reset and restart stay responsive
		go func() {
			err := session.Start(ctx, cfg)
			if err != nil && !errors.Is(err, game.ErrSuperseded) && ctx.Err() == nil {
				logger.Warn("deal failed", zap.Error(err))
				out.push(Message{Type: "error", Message: err.Error()})
			}
		}()
		return nil
	case ActionFlip:
		return session.Flip(action.Index)
	case ActionPower:
		return session.UsePowerUp()
	case ActionReset:
		session.Reset()
		return nil
	default:
		return fmt.Errorf("unknown action %q", action.Type)
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out *outbox, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-out.signal:
		}
		for _, m := range out.drain() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				logger.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}
