package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrBadResponse = errors.New("dictionary-bad-response")

// Lookup asks an authoritative source whether a word exists.
type Lookup interface {
	Exists(ctx context.Context, word string) (bool, error)
}

// HTTPLookup queries the open dictionary search API for exact, word-only,
// dictionary-sorted matches.
type HTTPLookup struct {
	Client   *http.Client
	Endpoint string
	Key      string
}

func NewHTTPLookup(endpoint, key string, client *http.Client) *HTTPLookup {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLookup{Client: client, Endpoint: endpoint, Key: key}
}

func (l *HTTPLookup) Exists(ctx context.Context, word string) (bool, error) {
	query := url.Values{}
	query.Set("key", l.Key)
	query.Set("q", word)
	query.Set("req_type", "json")
	query.Set("part", "word")
	query.Set("sort", "dict")
	query.Set("advanced", "y")
	query.Set("method", "exact")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("build dictionary request: %w", err)
	}
	response, err := l.Client.Do(request)
	if err != nil {
		return false, fmt.Errorf("dictionary request: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %d", ErrBadResponse, response.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read dictionary response: %w", err)
	}
	return parseSearchResult(body, word)
}

// parseSearchResult reads channel.total and looks for an item whose word
// equals the query once the dictionary's syllable markers are removed.
func parseSearchResult(body []byte, word string) (bool, error) {
	if !gjson.ValidBytes(body) {
		return false, fmt.Errorf("%w: invalid json", ErrBadResponse)
	}
	total := gjson.GetBytes(body, "channel.total")
	if !total.Exists() {
		return false, fmt.Errorf("%w: missing channel.total", ErrBadResponse)
	}
	if total.Int() == 0 {
		return false, nil
	}
	want := Normalize(word)
	found := false
	gjson.GetBytes(body, "channel.item.#.word").ForEach(func(_, value gjson.Result) bool {
		if stripMarkers(value.String()) == want {
			found = true
			return false
		}
		return true
	})
	return found, nil
}

var markerReplacer = strings.NewReplacer("-", "", "^", "", " ", "")

func stripMarkers(word string) string {
	return Normalize(markerReplacer.Replace(word))
}
