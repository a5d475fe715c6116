package apiclient

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/credentials"
)

type skipRenewalKey struct{}

// withoutRenewal marks requests whose 401 must be returned to the caller
// instead of triggering a renewal: the credential exchanges themselves.
func withoutRenewal(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipRenewalKey{}, true)
}

func renewalSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipRenewalKey{}).(bool)
	return skip
}

// Transport attaches the current access token to every request. A 401 is
// answered by renewing the token once and replaying the request a single
// time; the replay's response is returned whatever its status.
type Transport struct {
	base      http.RoundTripper
	store     *credentials.Store
	refresher *refresher
	metrics   *Metrics
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	accessToken := t.store.AccessToken()
	resp, err := t.send(req, req.Body, accessToken)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || renewalSkipped(req.Context()) {
		return resp, err
	}

	body, ok := rewind(req)
	if !ok {
		return resp, nil
	}
	discard(resp)

	fresh, err := t.refresher.renew(req.Context(), accessToken)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return nil, err
	}
	return t.send(req, body, fresh)
}

func (t *Transport) send(req *http.Request, body io.ReadCloser, accessToken string) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Body = body
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	resp, err := t.base.RoundTrip(out)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.request(status, err)
	return resp, err
}

// rewind returns a fresh copy of the request body for a replay. It reports
// false when the body was consumed and cannot be recreated.
func rewind(req *http.Request) (io.ReadCloser, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	return body, true
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
