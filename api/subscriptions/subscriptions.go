// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/dappstaking/api/utils"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/staking"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 7) / 10
	// pending batches per connection
	backlog = 64
)

// Source publishes batches of committed events.
type Source interface {
	SubscribeEvents(ch chan<- []*staking.Event) event.Subscription
}

type Subscriptions struct {
	source   Source
	upgrader *websocket.Upgrader
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	conns    sync.Map
}

func New(source Source, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		source: source,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseEventFilter(req.URL.Query())
	if err != nil {
		return err
	}
	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	ch := make(chan []*staking.Event, backlog)
	sub := s.source.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	s.wg.Add(1)
	s.conns.Store(conn, struct{}{})
	defer func() {
		s.conns.Delete(conn)
		conn.Close()
		s.wg.Done()
	}()

	if err := s.pipe(conn, filter, ch, sub); err != nil {
		logger.Debug("websocket subscription ended", "err", err)
	}
	return nil
}

// pipe forwards matching events to conn until the peer goes away, the source ends or the
// subscriptions are closed.
func (s *Subscriptions) pipe(conn *websocket.Conn, filter *eventFilter, ch <-chan []*staking.Event, sub event.Subscription) error {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			// discard incoming messages, a failed read means the peer is gone
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.done:
			return s.closeNormal(conn)
		case <-closed:
			return nil
		case err, ok := <-sub.Err():
			if !ok {
				return s.closeNormal(conn)
			}
			return err
		case batch := <-ch:
			sent := 0
			for _, ev := range batch {
				if !filter.match(ev) {
					continue
				}
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return err
				}
				if err := conn.WriteJSON(convertEvent(ev)); err != nil {
					return err
				}
				sent++
			}
			metricEventsPushed().AddWithLabel(int64(sent), map[string]string{"subject": "events"})
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func (s *Subscriptions) closeNormal(conn *websocket.Conn) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// Close ends every open subscription and waits for the connections to finish.
func (s *Subscriptions) Close() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Connections returns the number of open subscriptions.
func (s *Subscriptions) Connections() int {
	n := 0
	s.conns.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
