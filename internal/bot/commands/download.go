package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// Default download pacing: five requests per second, at most five in flight.
const (
	DefaultDownloadRate  = rate.Limit(5)
	DefaultDownloadBurst = 5
	maxEmojiBytes        = 8 << 20
)

// Fetcher retrieves one image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches images over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch returns the response body of a successful GET.
func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: timeouts.DiscordRequest}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEmojiBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > maxEmojiBytes {
		return nil, fmt.Errorf("get %s: image exceeds %d bytes", url, maxEmojiBytes)
	}
	return data, nil
}

// Downloaded is an emoji with its image bytes.
type Downloaded struct {
	Emoji
	Data []byte
}

// Progress is a snapshot of a running download.
type Progress struct {
	Total  int
	Done   int
	Failed int
}

// DownloadResult lists outcomes in input order.
type DownloadResult struct {
	Succeeded []Downloaded
	Failed    []Emoji
}

// Downloader fetches emojis at a bounded rate.
type Downloader struct {
	fetcher Fetcher
	limit   rate.Limit
	burst   int
}

// NewDownloader returns a downloader pacing requests at limit with the
// given burst. Non-positive values select the defaults.
func NewDownloader(fetcher Fetcher, limit rate.Limit, burst int) *Downloader {
	if fetcher == nil {
		fetcher = HTTPFetcher{}
	}
	if limit <= 0 {
		limit = DefaultDownloadRate
	}
	if burst <= 0 {
		burst = DefaultDownloadBurst
	}
	return &Downloader{fetcher: fetcher, limit: limit, burst: burst}
}

// Download fetches every emoji. A failed fetch marks that emoji failed and
// never stops the others. progress, when set, is called after each fetch
// and may be called concurrently.
func (d *Downloader) Download(ctx context.Context, emojis []Emoji, progress func(Progress)) DownloadResult {
	limiter := rate.NewLimiter(d.limit, d.burst)
	data := make([][]byte, len(emojis))
	ok := make([]bool, len(emojis))

	var (
		mu       sync.Mutex
		snapshot = Progress{Total: len(emojis)}
		group    errgroup.Group
	)
	group.SetLimit(d.burst)
	for i, emoji := range emojis {
		group.Go(func() error {
			var (
				body []byte
				err  error
			)
			if err = limiter.Wait(ctx); err == nil {
				body, err = d.fetcher.Fetch(ctx, emoji.URL)
			}

			mu.Lock()
			snapshot.Done++
			if err != nil {
				snapshot.Failed++
			} else {
				data[i], ok[i] = body, true
			}
			current := snapshot
			mu.Unlock()

			if progress != nil {
				progress(current)
			}
			return nil
		})
	}
	_ = group.Wait()

	var result DownloadResult
	for i, emoji := range emojis {
		if ok[i] {
			result.Succeeded = append(result.Succeeded, Downloaded{Emoji: emoji, Data: data[i]})
		} else {
			result.Failed = append(result.Failed, emoji)
		}
	}
	return result
}
