package apiclient

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/events"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

const tracerName = "github.com/jrsteele09/go-auth-client/apiclient"

// exchangeFunc performs the renewal call against the server.
type exchangeFunc func(ctx context.Context, refreshToken string) (*RefreshTokenResponse, error)

type renewalResult struct {
	accessToken string
	err         error
}

// refresher runs at most one renewal exchange at a time. Callers arriving
// while an exchange is in flight queue up and are released in arrival order
// with the exchange's outcome.
type refresher struct {
	store    *credentials.Store
	exchange exchangeFunc
	expired  *events.Broadcaster
	logger   zerolog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	mu       sync.Mutex
	inFlight bool
	waiters  []chan renewalResult
}

func newRefresher(store *credentials.Store, exchange exchangeFunc, expired *events.Broadcaster, logger zerolog.Logger, metrics *Metrics) *refresher {
	return &refresher{
		store:    store,
		exchange: exchange,
		expired:  expired,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// renew returns a fresh access token. stale is the token the caller's request
// was rejected with; if the store already holds a different token, a renewal
// has completed since and that token is returned without a new exchange.
func (r *refresher) renew(ctx context.Context, stale string) (string, error) {
	r.mu.Lock()
	if r.inFlight {
		ch := make(chan renewalResult, 1)
		r.waiters = append(r.waiters, ch)
		queued := len(r.waiters)
		r.mu.Unlock()

		r.metrics.waiter()
		r.logger.Debug().Int("position", queued).Msg("waiting on in-flight token renewal")

		select {
		case res := <-ch:
			return res.accessToken, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if current := r.store.AccessToken(); current != "" && current != stale {
		r.mu.Unlock()
		return current, nil
	}
	r.inFlight = true
	r.mu.Unlock()

	// The exchange outlives the caller that started it; waiters depend on it.
	accessToken, err := r.run(context.WithoutCancel(ctx))

	// Teardown completes while still in flight, so callers arriving meanwhile
	// queue behind this failure instead of replaying the rejected refresh token.
	if err != nil {
		_ = r.store.ClearAll()
	}

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inFlight = false
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn().Err(err).Int("waiters", len(waiters)).Msg("token renewal failed, session ended")
		if r.expired != nil {
			r.expired.Broadcast()
		}
	} else {
		r.logger.Debug().Int("waiters", len(waiters)).Msg("token renewed")
	}

	for _, ch := range waiters {
		ch <- renewalResult{accessToken: accessToken, err: err}
	}
	return accessToken, err
}

func (r *refresher) run(ctx context.Context) (string, error) {
	ctx, span := r.tracer.Start(ctx, "authclient.renew")
	defer span.End()

	accessToken, err := r.exchangeAndStore(ctx)
	r.metrics.renewal(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "renewal failed")
		return "", err
	}
	span.SetAttributes(attribute.Bool("authclient.renewal.success", true))
	return accessToken, nil
}

func (r *refresher) exchangeAndStore(ctx context.Context) (string, error) {
	refreshToken := r.store.RefreshToken()
	if refreshToken == "" {
		return "", newRenewalError(autherrors.ErrNoRefreshToken)
	}

	resp, err := r.exchange(ctx, refreshToken)
	if err != nil {
		return "", newRenewalError(err)
	}
	if resp.AccessToken == "" {
		return "", newRenewalError(autherrors.Wrapf(autherrors.ErrInvalidToken, "renewal response carried no access token"))
	}

	r.store.SetAccessToken(resp.AccessToken)
	if resp.RefreshToken != "" {
		if err := r.store.SetRefreshToken(resp.RefreshToken); err != nil {
			return "", newRenewalError(err)
		}
	}
	return resp.AccessToken, nil
}
