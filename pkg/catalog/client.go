// Package catalog talks to the BoardGameGeek XML API and normalizes its
// loosely-typed responses into plain records. Upstream quirks like the
// 202 "request queued" handshake and missing fields are resolved at this
// boundary.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the public BGG XML API, version 2.
	DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

	maxQueuedRetries = 4
)

var errRequestQueued = errors.New("bgg: request queued upstream")

// Observer receives timing for every upstream round trip. Wired to the
// metrics package in main; nil disables observation.
type Observer interface {
	ObserveRequest(op string, d time.Duration, err error)
}

// Client queries the catalog. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	cache   DetailsCache
	sf      singleflight.Group
	obs     Observer
	log     *logrus.Logger
}

// NewClient builds a catalog client. cache and obs may be nil.
func NewClient(baseURL string, timeout time.Duration, cache DetailsCache, obs Observer, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	st := gobreaker.Settings{
		Name:     "bgg",
		Interval: 10 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb:      gobreaker.NewCircuitBreaker(st),
		cache:   cache,
		obs:     obs,
		log:     log,
	}
}

// Search looks up games by name. The provider's relevance ordering is
// preserved; an empty slice means no matches.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u := fmt.Sprintf("%s/search?query=%s&type=boardgame", c.baseURL, url.QueryEscape(query))

	body, err := c.get(ctx, "search", u)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	results := make([]SearchResult, 0, len(items.Items))
	for _, it := range items.Items {
		results = append(results, toSearchResult(it))
	}
	return results, nil
}

// GetDetails fetches the full record for one game id, serving from the
// cache when possible. Concurrent fetches of the same id are collapsed.
func (c *Client) GetDetails(ctx context.Context, id int) (GameDetails, error) {
	if c.cache != nil {
		if d, ok := c.cache.Get(ctx, id); ok {
			return d, nil
		}
	}

	res, err, shared := c.sf.Do(gameKey(id), func() (interface{}, error) {
		d, err := c.fetchDetails(ctx, id)
		if err != nil {
			return GameDetails{}, err
		}
		if c.cache != nil {
			c.cache.Set(ctx, id, d)
		}
		return d, nil
	})
	if err != nil {
		return GameDetails{}, err
	}
	if shared {
		c.log.Debugf("shared details fetch for game %d", id)
	}
	return res.(GameDetails), nil
}

func (c *Client) fetchDetails(ctx context.Context, id int) (GameDetails, error) {
	u := fmt.Sprintf("%s/thing?id=%d&stats=1", c.baseURL, id)

	body, err := c.get(ctx, "thing", u)
	if err != nil {
		return GameDetails{}, err
	}

	items, err := decodeItems(body)
	if err != nil {
		return GameDetails{}, errors.Wrap(err, "decode thing response")
	}
	if len(items.Items) == 0 {
		// Unknown id: resolve every field to its sentinel rather than
		// surfacing a maybe-missing shape.
		return normalizeDetails(xmlItem{}, id), nil
	}
	return normalizeDetails(items.Items[0], id), nil
}

type httpResult struct {
	status int
	body   []byte
}

// get performs one GET with the circuit breaker around each attempt and
// exponential backoff across BGG's 202 "queued" responses.
func (c *Client) get(ctx context.Context, op, u string) ([]byte, error) {
	var body []byte

	attempt := func() error {
		start := time.Now()
		res, err := c.cb.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, u)
		})
		if c.obs != nil {
			c.obs.ObserveRequest(op, time.Since(start), err)
		}
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			// Transport fault: let backoff take another swing while the
			// breaker counts the failure.
			return err
		}

		r := res.(*httpResult)
		switch {
		case r.status == http.StatusAccepted:
			return errRequestQueued
		case r.status != http.StatusOK:
			return backoff.Permanent(errors.Errorf("bgg: unexpected status %d", r.status))
		}
		body = r.body
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxQueuedRetries), ctx)
	if err := backoff.Retry(attempt, bo); err != nil {
		c.log.WithError(err).WithField("op", op).Error("catalog request failed")
		return nil, err
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, u string) (*httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 5xx counts as a breaker failure; everything else is for the caller
	// to interpret.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Errorf("bgg: upstream status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &httpResult{status: resp.StatusCode, body: data}, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return bo
}
