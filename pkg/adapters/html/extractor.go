// Package html extracts record fields from itinerary HTML documents.
package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aretw0/itt/pkg/core"
)

// DefaultFetchTimeout bounds one document fetch when no shorter context deadline applies.
const DefaultFetchTimeout = 30 * time.Second

type options struct {
	selectors Selectors
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures an extractor.
type Option func(*options)

// WithSelectors replaces the default selectors.
func WithSelectors(sel Selectors) Option {
	return func(o *options) {
		o.selectors = sel
	}
}

// WithUserAgent sets the User-Agent used when fetching URLs.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithTimeout bounds each fetch of a URL.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{selectors: DefaultSelectors(), userAgent: "itt", timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromReader returns an extractor that parses the document read from r.
// The reader is consumed on the first extraction.
func FromReader(r io.Reader, opts ...Option) core.Extractor {
	o := newOptions(opts)
	return core.ExtractorFunc(func(ctx context.Context) (core.Fields, error) {
		raw, err := io.ReadAll(r)
		if err != nil {
			return core.Fields{}, fmt.Errorf("failed to read document: %w", err)
		}
		return Parse(raw, o.selectors)
	})
}

// FromURL returns an extractor that fetches the document at rawURL on every
// extraction. http, https and file URLs are supported. A fetch is abandoned
// when the extraction context is done or the fetch timeout elapses.
func FromURL(rawURL string, opts ...Option) core.Extractor {
	o := newOptions(opts)
	return core.ExtractorFunc(func(ctx context.Context) (core.Fields, error) {
		if err := ctx.Err(); err != nil {
			return core.Fields{}, err
		}
		return fetch(ctx, rawURL, o)
	})
}

// FromFile returns an extractor reading the document at path.
func FromFile(path string, opts ...Option) (core.Extractor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return FromURL("file://"+filepath.ToSlash(abs), opts...), nil
}

// contextTransport binds every request to the extraction context.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

func fetch(ctx context.Context, rawURL string, o *options) (core.Fields, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))

	c := colly.NewCollector(colly.UserAgent(o.userAgent))
	c.WithTransport(contextTransport{ctx: ctx, next: transport})
	if o.timeout > 0 {
		c.SetRequestTimeout(o.timeout)
	}

	var (
		fields   core.Fields
		parseErr error
		visitErr error
		fetched  bool
	)
	c.OnResponse(func(r *colly.Response) {
		fetched = true
		fields, parseErr = Parse(r.Body, o.selectors)
	})
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("failed to fetch %s (status %d): %w", rawURL, r.StatusCode, err)
	})

	if o.logger != nil {
		o.logger.Debug("fetching document", "url", rawURL)
	}
	if err := c.Visit(rawURL); err != nil && visitErr == nil {
		visitErr = fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	c.Wait()

	switch {
	case visitErr != nil:
		return core.Fields{}, visitErr
	case parseErr != nil:
		return core.Fields{}, parseErr
	case !fetched:
		return core.Fields{}, fmt.Errorf("no response for %s", rawURL)
	}
	return fields, nil
}

// Parse extracts the fields of the HTML document raw. The snapshot is raw itself.
func Parse(raw []byte, sel Selectors) (core.Fields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return core.Fields{}, fmt.Errorf("failed to parse document: %w", err)
	}

	fields := core.Fields{
		CustomerName:   text(doc, sel.CustomerName, ""),
		PackageTitle:   text(doc, sel.PackageTitle, ""),
		Snapshot:       string(raw),
		PackageDetails: make(core.Details, len(core.PackageFields)),
		HotelDetails:   make(core.Details, len(core.HotelFields)),
	}
	for _, f := range core.PackageFields {
		fields.PackageDetails[f] = text(doc, sel.Package[f], core.NotAvailable)
	}
	for _, f := range core.HotelFields {
		fields.HotelDetails[f] = text(doc, sel.Hotel[f], core.NotAvailable)
	}
	return fields, nil
}

// text returns the whitespace-normalized text of the first match of selector,
// or missing when nothing matches.
func text(doc *goquery.Document, selector, missing string) string {
	if selector == "" {
		return missing
	}
	match := doc.Find(selector).First()
	if match.Length() == 0 {
		return missing
	}
	return strings.Join(strings.Fields(match.Text()), " ")
}
