package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchXML = `<?xml version="1.0" encoding="utf-8"?>
<items total="2" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<item type="boardgame" id="13">
		<name type="primary" value="Catan"/>
		<yearpublished value="1995"/>
	</item>
	<item type="boardgame" id="27710">
		<name type="primary" value="Catan: Cities &amp; Knights"/>
		<yearpublished value="1998"/>
	</item>
</items>`

const thingXML = `<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<item type="boardgame" id="13">
		<thumbnail>https://cf.geekdo-images.com/thumb.jpg</thumbnail>
		<image>https://cf.geekdo-images.com/original.jpg</image>
		<name type="primary" sortindex="1" value="Catan"/>
		<name type="alternate" sortindex="1" value="Die Siedler von Catan"/>
		<description>Trade, build, settle.</description>
		<yearpublished value="1995"/>
		<minplayers value="3"/>
		<maxplayers value="4"/>
		<playingtime value="120"/>
		<statistics page="1">
			<ratings>
				<average value="7.1"/>
				<ranks>
					<rank type="subtype" id="1" name="boardgame" friendlyname="Board Game Rank" value="429"/>
				</ranks>
			</ratings>
		</statistics>
	</item>
</items>`

const sparseThingXML = `<?xml version="1.0" encoding="utf-8"?>
<items>
	<item type="boardgame" id="999">
		<name type="alternate" value="Obscure Game"/>
	</item>
</items>`

const emptySearchXML = `<?xml version="1.0" encoding="utf-8"?>
<items total="0" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse"/>`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func newTestClient(baseURL string, cache DetailsCache) *Client {
	return NewClient(baseURL, 5*time.Second, cache, nil, testLogger())
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "catan", r.URL.Query().Get("query"))
		assert.Equal(t, "boardgame", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(searchXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	results, err := c.Search(context.Background(), "catan")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{ID: 13, Name: "Catan", YearPublished: "1995"}, results[0])
	assert.Equal(t, 27710, results[1].ID)
}

func TestSearchNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptySearchXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	results, err := c.Search(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thing", r.URL.Path)
		assert.Equal(t, "13", r.URL.Query().Get("id"))
		assert.Equal(t, "1", r.URL.Query().Get("stats"))
		_, _ = w.Write([]byte(thingXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	d, err := c.GetDetails(context.Background(), 13)
	require.NoError(t, err)

	assert.Equal(t, 13, d.ID)
	assert.Equal(t, "Catan", d.Name, "primary name wins over alternates")
	assert.Equal(t, "1995", d.YearPublished)
	assert.Equal(t, "3", d.MinPlayers)
	assert.Equal(t, "4", d.MaxPlayers)
	assert.Equal(t, "120", d.PlayingTime)
	assert.Equal(t, "7.1", d.AverageRating)
	assert.Equal(t, "429", d.Rank)
	assert.Equal(t, "Trade, build, settle.", d.Description)
	assert.Equal(t, "https://boardgamegeek.com/boardgame/13", d.Link)
	assert.Equal(t, "https://cf.geekdo-images.com/original.jpg", d.Image)
}

func TestGetDetailsFallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sparseThingXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	d, err := c.GetDetails(context.Background(), 999)
	require.NoError(t, err)

	assert.Equal(t, 999, d.ID)
	assert.Equal(t, "Obscure Game", d.Name, "alternate name beats the sentinel")
	assert.Equal(t, UnknownYear, d.YearPublished)
	assert.Equal(t, UnknownValue, d.MinPlayers)
	assert.Equal(t, UnknownValue, d.MaxPlayers)
	assert.Equal(t, UnknownValue, d.PlayingTime)
	assert.Equal(t, NotAvailable, d.AverageRating)
	assert.Equal(t, NotAvailable, d.Rank)
	assert.Empty(t, d.Description)
	assert.Equal(t, "https://boardgamegeek.com/boardgame/999", d.Link)
}

func TestGetDetailsUnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><items/>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	d, err := c.GetDetails(context.Background(), 424242)
	require.NoError(t, err)

	assert.Equal(t, 424242, d.ID)
	assert.Equal(t, UnknownName, d.Name)
	assert.Equal(t, NotAvailable, d.Rank)
}

func TestQueuedRequestRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(searchXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	results, err := c.Search(context.Background(), "catan")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	_, err := c.Search(context.Background(), "catan")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetDetailsUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(thingXML))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, NewMemoryCache(time.Minute))

	for i := 0; i < 3; i++ {
		d, err := c.GetDetails(context.Background(), 13)
		require.NoError(t, err)
		assert.Equal(t, "Catan", d.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
