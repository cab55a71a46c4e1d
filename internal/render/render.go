// Package render turns listings into HTML fragments.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"net/url"
	"strings"

	"github.com/bryan-buckman/corvettetrader/internal/feed"
	"github.com/bryan-buckman/corvettetrader/internal/format"
	"github.com/bryan-buckman/corvettetrader/internal/listing"
	"github.com/bryan-buckman/corvettetrader/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Funcs are the template helpers, shared with the page templates.
var Funcs = template.FuncMap{
	"price":  format.Price,
	"mailto": MailtoLink,
}

var templates = template.Must(template.New("").Funcs(Funcs).ParseFS(templatesFS, "templates/*.html"))

// Card renders one listing.
func Card(l model.Listing) (template.HTML, error) {
	return execute("card", l)
}

// List renders every listing in order, or a placeholder when there are none.
func List(listings []model.Listing) (template.HTML, error) {
	return execute("list", listings)
}

// Error renders the inline load error message.
func Error(err error) (template.HTML, error) {
	return execute("error", err.Error())
}

// MailtoLink builds the contact link with a pre-filled subject. The subject
// is percent-encoded with spaces as %20.
func MailtoLink(l model.Listing) string {
	subject := strings.ReplaceAll(url.QueryEscape("Inquiry: "+l.Title), "+", "%20")
	return "mailto:" + l.Contact + "?subject=" + subject
}

// View is the content of the results region and the visible count.
type View struct {
	HTML     template.HTML
	Count    int
	Listings []model.Listing
	State    feed.State
}

// Results filters the snapshot and renders the results region. A snapshot
// that failed to load renders its error with a count of zero.
func Results(snap *feed.Snapshot, c model.Criteria) (View, error) {
	v := View{State: snap.State, Listings: []model.Listing{}}
	var err error
	switch snap.State {
	case feed.StateIdle, feed.StateLoading:
		v.HTML, err = execute("loading", nil)
	case feed.StateError:
		v.HTML, err = Error(snap.Err)
	default:
		v.Listings = listing.Apply(snap.Listings, c)
		v.Count = len(v.Listings)
		v.HTML, err = List(v.Listings)
	}
	return v, err
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
