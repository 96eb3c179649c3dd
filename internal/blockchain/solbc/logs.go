// internal/blockchain/solbc/logs.go
package solbc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"go.uber.org/zap"
)

// subscriptionSeq assigns process-local subscription ids; the websocket
// client does not expose the server-side id.
var subscriptionSeq atomic.Uint64

type recvResult struct {
	msg *blockchain.LogMessage
	err error
}

// logSubscription adapts ws.LogSubscription, whose Recv takes no context,
// to a context-aware Recv. A single reader goroutine drains the library
// stream into results until the stream fails or Unsubscribe is called.
type logSubscription struct {
	id      uint64
	client  *ws.Client
	sub     *ws.LogSubscription
	results chan recvResult
	closed  chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

// SubscribeLogs открывает websocket и подписывается на логи, упоминающие программу.
func (c *Client) SubscribeLogs(ctx context.Context, program solana.PublicKey) (blockchain.LogSubscription, error) {
	wsClient, err := ws.Connect(ctx, c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("websocket connect %s: %w", c.wsURL, err)
	}

	sub, err := wsClient.LogsSubscribeMentions(program, c.commitment)
	if err != nil {
		wsClient.Close()
		return nil, fmt.Errorf("logsSubscribe %s: %w", program, err)
	}

	s := &logSubscription{
		id:      subscriptionSeq.Add(1),
		client:  wsClient,
		sub:     sub,
		results: make(chan recvResult),
		closed:  make(chan struct{}),
		logger:  c.logger,
	}
	go s.pump()

	c.logger.Info("Subscribed to program logs",
		zap.String("program", program.String()),
		zap.Uint64("subscription_id", s.id))
	return s, nil
}

func (s *logSubscription) ID() uint64 {
	return s.id
}

// Recv returns the next message. It returns ctx.Err() on cancellation and
// ErrSubscriptionClosed once Unsubscribe was called.
func (s *logSubscription) Recv(ctx context.Context) (*blockchain.LogMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, blockchain.ErrSubscriptionClosed
	case r := <-s.results:
		return r.msg, r.err
	}
}

func (s *logSubscription) pump() {
	for {
		msg, err := s.next()
		select {
		case s.results <- recvResult{msg: msg, err: err}:
		case <-s.closed:
			return
		}
		if err != nil {
			return
		}
	}
}

// next wraps the library Recv. Unsubscribe closes the library channels, so
// a Recv blocked at that moment sees a nil value and panics on the type
// assertion, or gets (nil, nil) from the closed error channel.
func (s *logSubscription) next() (msg *blockchain.LogMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, err = nil, blockchain.ErrSubscriptionClosed
		}
	}()

	got, err := s.sub.Recv()
	if err != nil {
		return nil, fmt.Errorf("log subscription %d: %w", s.id, err)
	}
	if got == nil {
		return nil, blockchain.ErrSubscriptionClosed
	}
	return &blockchain.LogMessage{
		Signature: got.Value.Signature,
		Slot:      got.Context.Slot,
		Err:       got.Value.Err,
		Logs:      got.Value.Logs,
	}, nil
}

// Unsubscribe sends logsUnsubscribe, closes the connection and releases any
// pending Recv.
func (s *logSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.closed)
		s.sub.Unsubscribe()
		s.client.Close()
		s.logger.Debug("Log subscription closed", zap.Uint64("subscription_id", s.id))
	})
}
