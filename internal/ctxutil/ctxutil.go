package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyChatID key = iota
	keyOpName
)

// WithChatID — прокидываем chatID в контекст (для логов).
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, keyChatID, chatID)
}

func ChatID(ctx context.Context) (int64, bool) {
	v := ctx.Value(keyChatID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// WithOp — имя операции (для логов/трейса).
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DefaultDBTimeout — потолок одного похода в БД.
var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout — стандартный таймаут для БД; уважает более короткий дедлайн родителя.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
