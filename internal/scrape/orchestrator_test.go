package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solo800/civic-stream/internal/city"
	"github.com/solo800/civic-stream/internal/legistar"
	"github.com/solo800/civic-stream/internal/matter"
	"github.com/solo800/civic-stream/internal/resilience"
)

// stubFetcher serves pages from a fixed backing slice with the same
// offset/HasMore semantics as the real client, counting every call.
type stubFetcher struct {
	all   []matter.Raw
	err   error
	calls int
}

func (s *stubFetcher) FetchPage(_ context.Context, baseURL, _ string, offset, pageSize int) (legistar.Page, error) {
	s.calls++
	if s.err != nil {
		return legistar.Page{}, s.err
	}

	url := legistar.PageURL(baseURL, "", offset, pageSize)
	if offset >= len(s.all) {
		return legistar.Page{URL: url}, nil
	}
	end := offset + pageSize
	if end > len(s.all) {
		end = len(s.all)
	}
	items := s.all[offset:end]
	return legistar.Page{
		Items:   items,
		URL:     url,
		HasMore: len(items) == pageSize,
	}, nil
}

func rawMatters(n int) []matter.Raw {
	out := make([]matter.Raw, n)
	for i := range out {
		out[i] = matter.Raw{"MatterId": float64(i + 1), "MatterName": "Matter"}
	}
	return out
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}
}

func newOrchestrator(f PageFetcher, pageSize int) *Orchestrator {
	return NewOrchestrator(city.NewRegistry(), f, pageSize, fastRetry())
}

func TestRun_UnknownCity(t *testing.T) {
	stub := &stubFetcher{}
	o := newOrchestrator(stub, 3)

	_, err := o.Run(context.Background(), Options{City: "gotham", Limit: 5})

	var unknownErr *city.UnknownCityError
	require.True(t, errors.As(err, &unknownErr))
	assert.Zero(t, stub.calls, "no HTTP requests for unknown city")
}

func TestRun_MissingToken(t *testing.T) {
	stub := &stubFetcher{all: rawMatters(10)}
	o := newOrchestrator(stub, 3)

	// nyc requires a token and none is resolvable here.
	_, err := o.Run(context.Background(), Options{City: "nyc", Limit: 5})

	var missingErr *MissingTokenError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, "nyc", missingErr.City)
	assert.Contains(t, err.Error(), "LEGISTAR_TOKEN_NYC")
	assert.Zero(t, stub.calls, "zero HTTP requests when token policy fails")
}

func TestRun_TokenRequiredSatisfiedByCLI(t *testing.T) {
	stub := &stubFetcher{all: rawMatters(2)}
	o := newOrchestrator(stub, 3)

	res, err := o.Run(context.Background(), Options{City: "nyc", Limit: 2, CLIToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestRun_PaginationExactLimit(t *testing.T) {
	stub := &stubFetcher{all: rawMatters(9)}
	o := newOrchestrator(stub, 3)

	res, err := o.Run(context.Background(), Options{City: "chicago", Limit: 9})
	require.NoError(t, err)

	require.Len(t, res.Matters, 9)
	for i, m := range res.Matters {
		assert.Equal(t, int64(i+1), m.ID, "source order preserved")
	}
}

func TestRun_TruncatesOvershoot(t *testing.T) {
	// Page size 3 does not divide limit 5 evenly.
	stub := &stubFetcher{all: rawMatters(9)}
	o := newOrchestrator(stub, 3)

	res, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})
	require.NoError(t, err)

	assert.Len(t, res.Matters, 5)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, int64(5), res.Matters[4].ID)
}

func TestRun_SourceExhaustedBeforeLimit(t *testing.T) {
	stub := &stubFetcher{all: rawMatters(4)}
	o := newOrchestrator(stub, 3)

	res, err := o.Run(context.Background(), Options{City: "chicago", Limit: 50})
	require.NoError(t, err)

	assert.Len(t, res.Matters, 4)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, 50, res.Requested)
}

func TestRun_NetworkErrorRetriedToBound(t *testing.T) {
	stub := &stubFetcher{err: &legistar.NetworkError{StatusCode: 503, URL: "u"}}
	o := newOrchestrator(stub, 3)

	_, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})

	var netErr *legistar.NetworkError
	require.True(t, errors.As(err, &netErr), "NetworkError surfaced unmodified")
	assert.Equal(t, 3, stub.calls, "exactly the configured attempt count")
}

func TestRun_AuthErrorNotRetried(t *testing.T) {
	stub := &stubFetcher{err: &legistar.AuthError{StatusCode: 401, URL: "u"}}
	o := newOrchestrator(stub, 3)

	_, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})

	var authErr *legistar.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 1, stub.calls, "no second call for auth failures")
}

func TestRun_UpstreamErrorNotRetried(t *testing.T) {
	stub := &stubFetcher{err: &legistar.UpstreamError{StatusCode: 404, URL: "u"}}
	o := newOrchestrator(stub, 3)

	_, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})

	var upstreamErr *legistar.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, 1, stub.calls)
}

func TestRun_MalformedRecordAborts(t *testing.T) {
	stub := &stubFetcher{all: []matter.Raw{
		{"MatterId": float64(1)},
		{"MatterName": "no id"},
	}}
	o := newOrchestrator(stub, 3)

	_, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})

	var malformed *matter.MalformedRecordError
	require.True(t, errors.As(err, &malformed), "run aborts rather than dropping the record")
}

func TestRun_EndToEnd(t *testing.T) {
	// chicago (token not required), limit 5, pages of 3 and 2.
	stub := &stubFetcher{all: rawMatters(5)}
	o := newOrchestrator(stub, 3)

	res, err := o.Run(context.Background(), Options{City: "chicago", Limit: 5})
	require.NoError(t, err)

	require.Len(t, res.Matters, 5)
	assert.Equal(t, "chicago", res.City)
	assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))

	for _, m := range res.Matters {
		assert.False(t, m.DateScraped.IsZero())
		assert.NotEmpty(t, m.SourceURL)
	}

	// Records share a source URL within a page and differ across pages.
	assert.Equal(t, res.Matters[0].SourceURL, res.Matters[2].SourceURL)
	assert.Equal(t, res.Matters[3].SourceURL, res.Matters[4].SourceURL)
	assert.NotEqual(t, res.Matters[0].SourceURL, res.Matters[3].SourceURL)
	assert.Contains(t, res.Matters[0].SourceURL, "webapi.legistar.com/v1/chicago")
}

func TestResultSummary(t *testing.T) {
	res := &Result{
		City:      "chicago",
		Requested: 1,
		Count:     1,
		Matters: []matter.Matter{
			{FileNumber: "O2024-1", Name: "Some Ordinance", Type: "Ordinance", Status: "Passed"},
		},
	}

	s := res.Summary()
	assert.Contains(t, s, "Fetched 1 of 1")
	assert.Contains(t, s, "O2024-1: Some Ordinance")
	assert.Contains(t, s, "Type: Ordinance, Status: Passed")
}
