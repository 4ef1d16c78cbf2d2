package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const fetchTimeout = 15 * time.Second

// Fetcher retrieves a feed URL and parses it into events. A fetch either
// yields the full schedule or a typed error; it never yields a partial one.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]Event, error)
}

type HTTPFetcher struct {
	client *http.Client
	parser Parser
}

func NewHTTPFetcher(parser Parser) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: fetchTimeout},
		parser: parser,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]Event, error) {
	log.Infof("fetching feed %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchHTTP, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrFetchHTTP, err)
		}
		log.Errorf("can't download schedule: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: unexpected status %d from %s", ErrFetchHTTP, resp.StatusCode, url)
		log.Error(err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("%w: reading body: %v", ErrFetchHTTP, err)
		log.Error(err)
		return nil, err
	}

	events, err := f.parser.Parse(body)
	if err != nil {
		log.Errorf("can't parse schedule from %s: %v", url, err)
		return nil, err
	}

	log.Debugf("fetched %d events from %s", len(events), url)
	return events, nil
}
