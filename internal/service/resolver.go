package service

import (
	"Shortlytics-Backend/internal/analytics"
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RedirectCache is the key to URL cache in front of the store
type RedirectCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
}

// ClickSubmitter queues clicks for background counting
type ClickSubmitter interface {
	SubmitClick(click analytics.ClickData) error
}

// ClickUpdater counts a click synchronously, logging its own failures
type ClickUpdater interface {
	Update(ctx context.Context, click analytics.ClickData)
}

// RequestContext carries what the resolver needs to know about the visitor
type RequestContext struct {
	IP        string
	UserAgent string
	UserID    *int64
}

// storeLookupTimeout ограничивает общий поиск алиаса в хранилище
const storeLookupTimeout = 10 * time.Second

type RedirectStatus int

const (
	StatusFound RedirectStatus = iota + 1
	StatusNotFound
)

type RedirectOutcome struct {
	Status   RedirectStatus
	Location string
}

type Resolver struct {
	storage    repository.Storage
	cache      RedirectCache
	aggregator ClickUpdater
	submitter  ClickSubmitter
	ttl        time.Duration
	group      singleflight.Group
	log        *zap.Logger
}

func NewResolver(storage repository.Storage, cache RedirectCache, aggregator ClickUpdater, submitter ClickSubmitter, ttl time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{
		storage:    storage,
		cache:      cache,
		aggregator: aggregator,
		submitter:  submitter,
		ttl:        ttl,
		log:        log.With(zap.String("component", "resolver")),
	}
}

// Resolve returns the redirect target for alias. requestedKey is the fully-qualified
// short URL the visitor hit and is used as the cache key.
func (r *Resolver) Resolve(ctx context.Context, requestedKey, alias string, req RequestContext) (RedirectOutcome, error) {
	click := analytics.ClickData{
		Alias:     alias,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
		ClickedAt: time.Now().UTC(),
	}

	if url, ok := r.cached(ctx, requestedKey); ok {
		r.log.Debug("cache hit", zap.String("key", requestedKey), zap.Bool("authenticated", req.UserID != nil))
		if err := r.submitter.SubmitClick(click); err != nil {
			r.log.Warn("click dropped", zap.String("alias", alias), zap.Error(err))
		}
		return RedirectOutcome{Status: StatusFound, Location: url}, nil
	}

	r.log.Debug("cache miss", zap.String("key", requestedKey))

	// Общий поиск не привязан к отмене запроса, который его начал: остальные ждущие получат результат
	lookup := r.group.DoChan(alias, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeLookupTimeout)
		defer cancel()
		return r.storage.GetURLRecord(lookupCtx, alias)
	})

	var res singleflight.Result
	select {
	case res = <-lookup:
	case <-ctx.Done():
		return RedirectOutcome{}, ctx.Err()
	}
	if res.Err != nil {
		if errors.Is(res.Err, repository.ErrAliasNotFound) {
			return RedirectOutcome{Status: StatusNotFound}, nil
		}
		return RedirectOutcome{}, fmt.Errorf("%w: lookup alias %q: %w", ErrTransientStore, alias, res.Err)
	}
	record := res.Val.(*domain.URLRecord)
	shared := res.Shared

	if r.cache != nil {
		if err := r.cache.Set(ctx, requestedKey, record.FullURL, r.ttl); err != nil {
			r.log.Warn("failed to populate redirect cache", zap.String("key", requestedKey), zap.Error(err))
		}
	}

	// Клиент может закрыть соединение раньше, чем посчитается клик
	r.aggregator.Update(context.WithoutCancel(ctx), click)

	r.log.Debug("resolved from store", zap.String("alias", alias), zap.Bool("shared", shared))

	return RedirectOutcome{Status: StatusFound, Location: record.FullURL}, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	url, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("redirect cache unavailable, falling back to store", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return url, found
}
