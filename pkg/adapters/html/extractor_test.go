package html_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/adapters/html"
	"github.com/aretw0/itt/pkg/core"
)

const itinerary = `<!DOCTYPE html>
<html>
<body>
  <h1 id="customerName">  Alice
    Smith </h1>
  <h2 id="packageTitle">Dubai 5N</h2>
  <div class="package">
    <span class="price">$1,200</span>
    <span class="trip-duration">5 nights</span>
    <p class="description">Desert safari and city tour</p>
  </div>
  <div class="hotel-card">
    <span class="hotel-name">Atlantis</span>
    <span class="rating">5 stars</span>
  </div>
</body>
</html>`

func TestParse(t *testing.T) {
	fields, err := html.Parse([]byte(itinerary), html.DefaultSelectors())
	require.NoError(t, err)

	assert.Equal(t, "Alice Smith", fields.CustomerName)
	assert.Equal(t, "Dubai 5N", fields.PackageTitle)
	assert.Equal(t, itinerary, fields.Snapshot)

	assert.Equal(t, "$1,200", fields.PackageDetails[core.FieldPrice])
	assert.Equal(t, "5 nights", fields.PackageDetails[core.FieldDuration])
	assert.Equal(t, core.NotAvailable, fields.PackageDetails[core.FieldLocation])
	assert.Equal(t, "Desert safari and city tour", fields.PackageDetails[core.FieldDescription])

	// The hotel-card container is the first element whose class contains "hotel".
	assert.Equal(t, "Atlantis 5 stars", fields.HotelDetails[core.FieldHotelName])
	assert.Equal(t, "5 stars", fields.HotelDetails[core.FieldHotelRating])
	assert.Equal(t, core.NotAvailable, fields.HotelDetails[core.FieldHotelLocation])
	assert.Equal(t, core.NotAvailable, fields.HotelDetails[core.FieldAmenities])

	assert.Len(t, fields.PackageDetails, len(core.PackageFields))
	assert.Len(t, fields.HotelDetails, len(core.HotelFields))
}

func TestParse_CustomSelectors(t *testing.T) {
	sel := html.DefaultSelectors()
	sel.CustomerName = "h2"
	sel.Package[core.FieldPrice] = "#missing"

	fields, err := html.Parse([]byte(itinerary), sel)
	require.NoError(t, err)
	assert.Equal(t, "Dubai 5N", fields.CustomerName)
	assert.Equal(t, core.NotAvailable, fields.PackageDetails[core.FieldPrice])
}

func TestFromReader(t *testing.T) {
	ex := html.FromReader(strings.NewReader(itinerary))

	fields, err := ex.ExtractCurrentFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", fields.CustomerName)
}

func TestFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/itinerary" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(itinerary))
	}))
	defer srv.Close()

	t.Run("Fetches Document", func(t *testing.T) {
		fields, err := html.FromURL(srv.URL + "/itinerary").ExtractCurrentFields(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Dubai 5N", fields.PackageTitle)
		assert.Equal(t, itinerary, fields.Snapshot)
	})

	t.Run("Reports HTTP Errors", func(t *testing.T) {
		_, err := html.FromURL(srv.URL + "/missing").ExtractCurrentFields(context.Background())
		assert.Error(t, err)
	})
}

func TestFromURL_StalledServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	t.Run("Fetch Timeout", func(t *testing.T) {
		start := time.Now()
		_, err := html.FromURL(srv.URL, html.WithTimeout(100*time.Millisecond)).ExtractCurrentFields(context.Background())
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("Context Deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := html.FromURL(srv.URL).ExtractCurrentFields(ctx)
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itinerary.html")
	require.NoError(t, os.WriteFile(path, []byte(itinerary), 0644))

	ex, err := html.FromFile(path)
	require.NoError(t, err)

	fields, err := ex.ExtractCurrentFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", fields.CustomerName)
	assert.Equal(t, "$1,200", fields.PackageDetails[core.FieldPrice])
}

func TestSaveCurrent(t *testing.T) {
	ctx := context.Background()
	store := core.NewStore(emptyKV{})

	placeholder := strings.Replace(itinerary, "Alice\n    Smith", "Enter Customer Name", 1)
	_, err := store.SaveCurrent(ctx, html.FromReader(strings.NewReader(placeholder)))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}

// emptyKV is a KV that never holds data; the placeholder check fails before any write.
type emptyKV struct{}

func (emptyKV) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (emptyKV) Set(context.Context, string, string) error         { return nil }
