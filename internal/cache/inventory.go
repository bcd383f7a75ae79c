package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	RequestKeyPrefix = "request:%d"
)

const (
	UserTTL = 5 * time.Minute
	// RequestTTL is short: request rows change through conditional transitions
	// and stale reads here only affect GET responses, never the CAS predicates.
	RequestTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RequestKey(requestID uint) string {
	return fmt.Sprintf(RequestKeyPrefix, requestID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateRequest(ctx context.Context, requestID uint) {
	Invalidate(ctx, RequestKey(requestID))
}
