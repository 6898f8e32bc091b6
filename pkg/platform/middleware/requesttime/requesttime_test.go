package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credvault/pkg/requestcontext"
)

func serve(h http.Handler) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/certificates/mine", nil))
}

func TestClockIsReadOncePerRequest(t *testing.T) {
	calls := 0
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	var reads []time.Time
	serve(New(clock)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		reads = append(reads, requestcontext.Now(r.Context()), requestcontext.Now(r.Context()))
	})))

	require.Len(t, reads, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, base.Add(time.Second), reads[0])
	assert.Equal(t, reads[0], reads[1])
}

func TestEachRequestGetsItsOwnTime(t *testing.T) {
	calls := 0
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	mw := New(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	})

	var seen []time.Time
	h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = append(seen, requestcontext.Now(r.Context()))
	}))
	serve(h)
	serve(h)

	require.Len(t, seen, 2)
	assert.True(t, seen[1].After(seen[0]))
}

func TestTimeIsNormalisedToUTC(t *testing.T) {
	local := time.Date(2024, 6, 15, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	var got time.Time
	serve(New(func() time.Time { return local })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.Now(r.Context())
	})))

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))
}

func TestDefaultMiddlewareUsesWallClock(t *testing.T) {
	var got time.Time
	before := time.Now()
	serve(Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.Now(r.Context())
	})))

	assert.False(t, got.Before(before.Truncate(time.Second)))
	assert.False(t, got.After(time.Now()))
}
