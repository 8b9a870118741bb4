package ocms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	callbackKeyPrefix = "jobs:request:"
	callbackPending   = "__pending__"

	// CallbackTTL bounds how long an unanswered request stays matchable.
	CallbackTTL = time.Hour
)

// ErrUnknownRequest signals a callback that matches no pending request,
// either because it never existed or because it expired.
var ErrUnknownRequest = errors.New("unknown or expired request")

// CallbackRegistry correlates asynchronous outcomes with the requests
// that caused them. A trigger registers a pending request; the worker or
// an external agency completes it later with a token, and clients poll
// for the result.
type CallbackRegistry struct {
	redis redis.UniversalClient
}

func NewCallbackRegistry(redisClient redis.UniversalClient) *CallbackRegistry {
	return &CallbackRegistry{redis: redisClient}
}

// RegisterPending opens a request window. The window closes on completion
// or after the TTL, whichever comes first.
func (c *CallbackRegistry) RegisterPending(ctx context.Context, requestID string) error {
	ok, err := c.redis.SetNX(ctx, callbackKeyPrefix+requestID, callbackPending, CallbackTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("request %s already registered", requestID)
	}
	return nil
}

// Complete delivers a token against a pending request. Completion is
// guarded so a late or replayed callback cannot overwrite a delivered
// token.
func (c *CallbackRegistry) Complete(ctx context.Context, requestID, token string) error {
	script := `
		if redis.call('get', KEYS[1]) == ARGV[1] then
			return redis.call('set', KEYS[1], ARGV[2], 'KEEPTTL')
		else
			return false
		end`
	result, err := c.redis.Eval(ctx, script, []string{callbackKeyPrefix + requestID}, callbackPending, token).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if result == nil || err == redis.Nil {
		return ErrUnknownRequest
	}
	return nil
}

// Fetch returns the delivered token. done is false while the request is
// still pending; ErrUnknownRequest means the window closed or never
// opened.
func (c *CallbackRegistry) Fetch(ctx context.Context, requestID string) (token string, done bool, err error) {
	value, err := c.redis.Get(ctx, callbackKeyPrefix+requestID).Result()
	if err == redis.Nil {
		return "", false, ErrUnknownRequest
	}
	if err != nil {
		return "", false, err
	}
	if value == callbackPending {
		return "", false, nil
	}
	return value, true, nil
}
