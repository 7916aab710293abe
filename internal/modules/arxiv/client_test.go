package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Deep Learning
  for Robot   Navigation</title>
    <summary>  We study robot navigation.  </summary>
    <published>2024-01-02T00:00:00Z</published>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v2</id>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <published>2024-01-03T00:00:00Z</published>
    <author><name>Carol White</name></author>
  </entry>
</feed>`

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient(nil, WithQueryURL(srv.URL))
	papers, err := c.Search(context.Background(), `all:"robotics"`, 5)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Equal(t, `all:"robotics"`, gotQuery)
	assert.Equal(t, "http://arxiv.org/abs/2401.00001v1", papers[0].EntryID)
	assert.Equal(t, "Deep Learning for Robot Navigation", papers[0].Title)
	assert.Equal(t, "We study robot navigation.", papers[0].Summary)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, papers[0].Authors)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), papers[0].Published)
	assert.Equal(t, "http://arxiv.org/pdf/2401.00001v1", papers[0].PDFURL)

	// Entries without an explicit pdf link fall back to the abs URL rewrite.
	assert.Equal(t, "http://arxiv.org/pdf/2401.00002v2", papers[1].PDFURL)
}

func TestSearchByIDsBuildsIDList(t *testing.T) {
	var gotIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("id_list")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient(nil, WithQueryURL(srv.URL))
	_, err := c.SearchByIDs(context.Background(), []string{"2401.00001v1", "2401.00002v2"})
	require.NoError(t, err)
	assert.Equal(t, "2401.00001v1,2401.00002v2", gotIDs)

	papers, err := c.SearchByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSearchUnavailableSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(nil, WithQueryURL(srv.URL))
	_, err := c.Search(context.Background(), "all:x", 5)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetchPDFIdempotent(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(nil)
	p := Paper{EntryID: "http://arxiv.org/abs/2401.00001v1", PDFURL: srv.URL + "/pdf"}

	dest, err := c.FetchPDF(context.Background(), p, dir, "paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "paper.pdf"), dest)
	assert.Equal(t, 1, hits)

	_, err = c.FetchPDF(context.Background(), p, dir, "paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "existing file must not trigger a second download")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestFetchPDFWithoutURL(t *testing.T) {
	c := NewClient(nil)
	_, err := c.FetchPDF(context.Background(), Paper{EntryID: "http://arxiv.org/abs/x"}, t.TempDir(), "x.pdf")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetchSourceArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/e-print/2401.00001v1" {
			w.Write([]byte("archive-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(nil, WithDownloadBase(srv.URL))
	p := Paper{EntryID: "http://arxiv.org/abs/2401.00001v1"}

	dest, err := c.FetchSourceArchive(context.Background(), p, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2401.00001v1.tar.gz"), dest)

	_, err = c.FetchSourceArchive(context.Background(), Paper{EntryID: "http://arxiv.org/abs/missing"}, dir)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestShortID(t *testing.T) {
	p := Paper{EntryID: "http://arxiv.org/abs/2401.00001v1"}
	assert.Equal(t, "2401.00001v1", p.ShortID())
}
