// README: FCM push notifier for order status changes.
package notify

import (
	"context"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gswash/internal/modules/order"
	"gswash/internal/types"
)

const deviceTokenKey = "devices:tokens"

const sendTimeout = 10 * time.Second

// sender is the slice of the FCM client the notifier uses.
type sender interface {
	Send(ctx context.Context, m *messaging.Message) (string, error)
}

// tokenStore maps customers to their current FCM device token.
type tokenStore interface {
	token(ctx context.Context, customerID types.ID) (string, error)
	setToken(ctx context.Context, customerID types.ID, token string) error
}

// redisTokens keeps device tokens in a Redis hash; absent customers
// resolve to redis.Nil.
type redisTokens struct {
	redis *redis.Client
}

func (r redisTokens) token(ctx context.Context, customerID types.ID) (string, error) {
	return r.redis.HGet(ctx, deviceTokenKey, string(customerID)).Result()
}

func (r redisTokens) setToken(ctx context.Context, customerID types.ID, token string) error {
	return r.redis.HSet(ctx, deviceTokenKey, string(customerID), token).Err()
}

// Service pushes a data message to the customer's device when an order
// status changes. Delivery is a collaborator concern: the core only
// guarantees the status value changed, so every failure here is logged
// and swallowed.
type Service struct {
	msg    sender
	tokens tokenStore
	log    *zap.Logger
}

func NewService(msg *messaging.Client, redis *redis.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{msg: msg, tokens: redisTokens{redis: redis}, log: log}
}

// RegisterToken stores the FCM device token for a customer; the mobile
// app calls this on login and on token rotation.
func (s *Service) RegisterToken(ctx context.Context, customerID types.ID, token string) error {
	return s.tokens.setToken(ctx, customerID, token)
}

// OrderChanged implements the order service's Publisher.
func (s *Service) OrderChanged(e order.Event) {
	if e.FromStatus == e.ToStatus {
		// payment flips etc.; only status changes are pushed
		return
	}
	go s.push(e)
}

func (s *Service) push(e order.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	token, err := s.tokens.token(ctx, e.CustomerID)
	if err == redis.Nil || token == "" {
		return
	}
	if err != nil {
		s.log.Warn("device token lookup failed", zap.String("customer_id", string(e.CustomerID)), zap.Error(err))
		return
	}

	_, err = s.msg.Send(ctx, &messaging.Message{
		Token: token,
		Data: map[string]string{
			"type":     "order_status",
			"order_id": e.OrderID,
			"status":   string(e.ToStatus),
		},
		Android: &messaging.AndroidConfig{Priority: "high"},
	})
	if err != nil {
		s.log.Warn("push send failed",
			zap.String("order_id", e.OrderID),
			zap.String("status", string(e.ToStatus)),
			zap.Error(err))
	}
}
