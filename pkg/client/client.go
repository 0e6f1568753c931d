// Package client talks to a heist host server: it creates and joins rooms over HTTP and keeps a
// websocket open for game traffic. Submissions wait for the server's verdict, so a Client can
// back a widget's Submitter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heist/pkg/game/puzzle"
	"heist/pkg/protocol"
)

// closeWait bounds how long Close waits for the server to answer the close frame.
const closeWait = 5 * time.Second

var (
	// ErrClosed is returned by calls made after the connection went away.
	ErrClosed = errors.New("connection closed")
	// ErrRefused is returned when the server answers a submission with an error frame.
	ErrRefused = errors.New("submission refused")
)

// Handler receives every frame read from the server, on the client's read goroutine.
type Handler func(protocol.Envelope)

// Client is one player's connection.
type Client struct {
	conn    *websocket.Conn
	handler Handler
	log     *zap.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int]chan verdict
	closed  bool
	err     error
	done    chan struct{}
}

// verdict is the server's answer to one submission.
type verdict struct {
	accepted bool
	err      error
}

// RoomAPIError is a refused create or join request.
type RoomAPIError struct {
	Status  int
	Message string
}

func (e *RoomAPIError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// CreateRoom asks the server at base (http://host:port) for a new room hosted by hostName.
func CreateRoom(ctx context.Context, hc *http.Client, base, hostName string) (protocol.RoomResponse, error) {
	return postRoom(ctx, hc, base+"/api/rooms/create", protocol.CreateRoom{HostName: hostName})
}

// JoinRoom adds playerName to the room with code.
func JoinRoom(ctx context.Context, hc *http.Client, base, code, playerName string) (protocol.RoomResponse, error) {
	return postRoom(ctx, hc, base+"/api/rooms/join", protocol.JoinRoom{RoomCode: code, PlayerName: playerName})
}

func postRoom(ctx context.Context, hc *http.Client, endpoint string, body any) (protocol.RoomResponse, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	var out protocol.RoomResponse
	data, err := json.Marshal(body)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, &RoomAPIError{Status: resp.StatusCode, Message: out.Error}
	}
	return out, nil
}

// WebsocketURL derives the game socket address from an http(s) base URL.
func WebsocketURL(base, room, player string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"room": {room}, "player": {player}}.Encode()
	return u.String(), nil
}

// Dial opens the game socket for player in room. handler may be nil.
func Dial(ctx context.Context, base, room, player string, handler Handler, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	addr, err := WebsocketURL(base, room, player)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Client{
		conn:    conn,
		handler: handler,
		log:     log.Named("client"),
		pending: make(map[int]chan verdict),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	var err error
	for {
		var env protocol.Envelope
		if err = c.conn.ReadJSON(&env); err != nil {
			break
		}
		switch env.Type {
		case protocol.TypeSolutionResult:
			c.resolve(env)
		case protocol.TypeError:
			c.refuse(env)
		}
		if c.handler != nil {
			c.handler(env)
		}
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = nil
	}
	c.mu.Lock()
	c.closed = true
	c.err = err
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	close(c.done)
	c.log.Debug("read loop stopped", zap.Error(err))
}

func (c *Client) resolve(env protocol.Envelope) {
	var res protocol.SolutionResult
	if err := env.Decode(&res); err != nil {
		c.log.Warn("bad solution result", zap.Error(err))
		return
	}
	c.deliver(res.ID, verdict{accepted: res.Accepted})
}

// refuse fails the submission an error frame answers.
func (c *Client) refuse(env protocol.Envelope) {
	var msg protocol.Error
	if err := env.Decode(&msg); err != nil || msg.Context != protocol.TypePuzzleSolution || msg.ID == 0 {
		return
	}
	c.deliver(msg.ID, verdict{err: fmt.Errorf("%w: %s", ErrRefused, msg.Message)})
}

func (c *Client) deliver(id int, v verdict) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if ok {
		ch <- v
	}
}

// Send writes one message.
func (c *Client) Send(typ string, payload any) error {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Submit sends a solution for the player's own puzzle and waits for the verdict.
func (c *Client) Submit(ctx context.Context, payload any) (bool, error) {
	return c.submit(ctx, "", payload)
}

// SubmitTeam sends a solution for the shared team puzzle and waits for the verdict.
func (c *Client) SubmitTeam(ctx context.Context, payload any) (bool, error) {
	return c.submit(ctx, protocol.TeamPuzzle, payload)
}

// Submitter returns the submit function for a widget mounted from msg.
func (c *Client) Submitter(msg protocol.PuzzleData) puzzle.Submitter {
	if msg.Team {
		return c.SubmitTeam
	}
	return c.Submit
}

func (c *Client) submit(ctx context.Context, target string, payload any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("%w: %v", puzzle.ErrInvalidInput, err)
	}
	id := int(c.nextID.Add(1))
	ch := make(chan verdict, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}
	if err := c.Send(protocol.TypePuzzleSolution, protocol.PuzzleSolution{ID: id, Puzzle: target, Solution: data}); err != nil {
		forget()
		return false, err
	}
	select {
	case v, ok := <-ch:
		if !ok {
			return false, ErrClosed
		}
		return v.accepted, v.err
	case <-ctx.Done():
		forget()
		return false, ctx.Err()
	}
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, nil for a clean close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a close frame and waits for the read loop to stop. It returns Err.
func (c *Client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	if err != nil {
		c.conn.Close()
	}
	select {
	case <-c.done:
	case <-time.After(closeWait):
		c.conn.Close()
		<-c.done
	}
	_ = c.conn.Close()
	return c.Err()
}
