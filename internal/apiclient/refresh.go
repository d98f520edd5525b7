package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// TokenPair is a freshly minted set of credentials.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresher exchanges a refresh credential for a new pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// HTTPRefresher calls the refresh endpoint directly, bypassing the interceptor,
// so a failing refresh can never recurse into another refresh.
type HTTPRefresher struct {
	url  string
	http *http.Client
}

func NewHTTPRefresher(url string, hc *http.Client) *HTTPRefresher {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPRefresher{url: url, http: hc}
}

func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return TokenPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("apiclient: refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenPair{}, readStatusError(resp, http.MethodPost, req.URL.Path)
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return TokenPair{}, fmt.Errorf("apiclient: refresh: decode response: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, errors.New("apiclient: refresh: response missing credentials")
	}
	return pair, nil
}

// renew obtains an access credential to retry a call that failed with 401 while using `used`.
//
// Concurrent expiries share one refresh per refresh credential. A caller whose
// credential was already rotated by another flight retries with the current one.
func (c *Client) renew(ctx context.Context, used string, original error) (string, error) {
	access, refresh := c.sess.Credentials()
	if access != "" && access != used {
		refreshTotal.WithLabelValues(outcomeAlreadyRotated).Inc()
		return access, nil
	}
	if refresh == "" {
		refreshTotal.WithLabelValues(outcomeNoRefreshToken).Inc()
		c.endSession(ctx, original)
		return "", &SessionEndedError{Cause: original}
	}

	v, err, shared := c.flights.Do(refresh, func() (any, error) {
		// A flight for this credential may have completed between the read above and now.
		if cur, curRefresh := c.sess.Credentials(); curRefresh != refresh && cur != "" {
			return cur, nil
		}

		// Navigating away must not abort a refresh other calls are waiting on.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		pair, err := c.refresher.Refresh(rctx, refresh)
		if err != nil {
			refreshTotal.WithLabelValues(outcomeFailed).Inc()
			c.endSession(ctx, err)
			return nil, err
		}
		if !c.sess.RotateCredentials(refresh, pair.AccessToken, pair.RefreshToken) {
			refreshTotal.WithLabelValues(outcomeDiscarded).Inc()
			c.log.Info("renewed credentials discarded, session changed during refresh")
			return nil, ErrSessionChanged
		}
		refreshTotal.WithLabelValues(outcomeSuccess).Inc()
		c.log.Debug("access credential renewed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", &SessionEndedError{Cause: err}
	}
	if shared {
		c.log.Debug("joined in-flight credential renewal")
	}
	return v.(string), nil
}

func (c *Client) endSession(ctx context.Context, cause error) {
	c.sess.Clear()
	c.log.Warn("session ended, sign in required", "err", cause)
	if c.onSessionEnded != nil {
		c.onSessionEnded(ctx, cause)
	}
}
