package arxiv

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"
)

// ErrSourceUnavailable wraps search/download failures against the paper
// repository. Callers skip the affected paper and continue the batch.
var ErrSourceUnavailable = errors.New("paper source unavailable")

// Paper is one search result from the paper repository.
type Paper struct {
	EntryID   string    // canonical abs URL, e.g. http://arxiv.org/abs/2401.00001v1
	Title     string
	Summary   string
	Authors   []string
	Published time.Time
	PDFURL    string
}

// ShortID returns the trailing id segment of the entry id
// (e.g. "2401.00001v1"). Used for citation keys and e-print downloads.
func (p Paper) ShortID() string {
	id := strings.TrimRight(p.EntryID, "/")
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// Atom feed wire format of the export API.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}
