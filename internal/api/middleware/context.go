package middleware

import (
	"context"
	"net/http"

	"github.com/hauldesk/hauldesk/internal/jobs"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	keyPrefixKey contextKey = "key_prefix"
)

func SetActor(ctx context.Context, a jobs.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func GetActor(r *http.Request) (jobs.Actor, bool) {
	a, ok := r.Context().Value(actorKey).(jobs.Actor)
	return a, ok
}

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}
