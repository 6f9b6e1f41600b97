package reporting

import (
	"context"
	"maps"
	"time"

	"github.com/getsentry/sentry-go"
)

type metaContextKey struct{}

// reportingMeta is request scoped information attached to every report.
// Values stored in a context are never mutated; updates store a copy.
type reportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	userID    string
	startedAt time.Time
}

func (m reportingMeta) clone() reportingMeta {
	tags := maps.Clone(m.tags)
	if tags == nil {
		tags = make(map[string]string)
	}
	extras := maps.Clone(m.extras)
	if extras == nil {
		extras = make(map[string]string)
	}

	return reportingMeta{
		tags:      tags,
		extras:    extras,
		userID:    m.userID,
		startedAt: m.startedAt,
	}
}

func (m reportingMeta) applyTo(scope *sentry.Scope) {
	scope.SetTags(m.tags)
	for key, value := range m.extras {
		scope.SetExtra(key, value)
	}
	if m.userID != "" {
		scope.SetUser(sentry.User{ID: m.userID})
	}
	if !m.startedAt.IsZero() {
		scope.SetExtra("secondsSinceStart", time.Since(m.startedAt).Seconds())
	}
}

func metaFromContext(ctx context.Context) reportingMeta {
	meta, _ := ctx.Value(metaContextKey{}).(reportingMeta)
	return meta.clone()
}

func updateMeta(ctx context.Context, update func(meta *reportingMeta)) context.Context {
	meta := metaFromContext(ctx)
	update(&meta)
	return context.WithValue(ctx, metaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	return updateMeta(ctx, func(meta *reportingMeta) {
		meta.startedAt = startedAt
	})
}

// AddExtrasToContext attaches extras to every error reported with the returned context
func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	return updateMeta(ctx, func(meta *reportingMeta) {
		maps.Copy(meta.extras, extras)
	})
}

// AddTagsToContext attaches searchable tags to every error reported with the returned context
func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	return updateMeta(ctx, func(meta *reportingMeta) {
		maps.Copy(meta.tags, tags)
	})
}

func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return updateMeta(ctx, func(meta *reportingMeta) {
		meta.userID = userID
	})
}
