package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSameItems(t *testing.T, want, got []Item) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID, "item %d", i)
		assert.Equal(t, w.ServiceType, g.ServiceType, "item %d", i)
		assert.Equal(t, w.Name, g.Name, "item %d", i)
		assert.Equal(t, w.ImageURL, g.ImageURL, "item %d", i)
		assert.Equal(t, w.Qty, g.Qty, "item %d", i)
		assert.True(t, w.Price.Equal(g.Price), "item %d price: want %s, got %s", i, w.Price, g.Price)
		assert.Equal(t, w.Details, g.Details, "item %d", i)
	}
}

func TestMarshalItems_RoundTrip(t *testing.T) {
	c := New()
	c.AddRestaurantItem(Listing{ID: "m1", Name: "Suya", Price: decimal.NewFromInt(1500), ImageURL: "/img/suya.jpg"}, 3, nil)
	c.AddGameSession(Listing{ID: "ps5", Name: "PS5"}, 90, SessionCasual)
	c.AddPrintJob(Listing{ID: "job", Name: "Print"}, PrintJobDetails{
		FileName: "notes.pdf", NumPages: 3,
		PrintOptions: PrintOptions{Color: true, Binding: "spiral"},
	})
	c.AddDownload(Listing{ID: "f1", Name: "Film"}, DownloadDetails{FileType: "movie", DownloadLinks: []string{"https://a", "https://b"}})
	c.Add(Item{ID: "raw", ServiceType: ServiceEcommerce, Name: "No details", Price: decimal.RequireFromString("12.75"), Qty: 2})

	data, err := MarshalItems(c.Items())
	require.NoError(t, err)

	got, err := UnmarshalItems(data)
	require.NoError(t, err)
	requireSameItems(t, c.Items(), got)

	// Reloaded items keep merging with fresh adds.
	reloaded := New(got...)
	reloaded.AddGameSession(Listing{ID: "ps5", Name: "PS5"}, 90, SessionCasual)
	assert.Equal(t, 5, reloaded.Len())
	assert.Equal(t, 2, reloaded.ServiceItems(ServiceGame)[0].Qty)
}

func TestMarshalItems_Shape(t *testing.T) {
	data, err := MarshalItems([]Item{{
		ID:          "1",
		ServiceType: ServiceStreaming,
		Name:        "Live",
		Price:       decimal.NewFromInt(500),
		Qty:         1,
		Details:     Details{"accessType": "single"},
	}})
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":"1","serviceType":"streaming","name":"Live","price":500,"qty":1,"details":{"accessType":"single"}}]`,
		string(data),
	)

	empty, err := MarshalItems(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestUnmarshalItems_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "[]", " [ ] \n"} {
		items, err := UnmarshalItems([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, items, "input %q", in)
	}
}

func TestUnmarshalItems_IgnoresUnknownFields(t *testing.T) {
	items, err := UnmarshalItems([]byte(`[{"id":"1","serviceType":"game","name":"PS5","price":2000,"qty":1,"legacy":{"a":[1,2]}}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(2000).Equal(items[0].Price))
}

func TestUnmarshalItems_Corrupt(t *testing.T) {
	for _, in := range []string{
		"{",
		"not json",
		`{"id":"1"}`,
		`[{"id":1}]`,
		`[{"id":"1","qty":"many"}]`,
		`[{"id":"1","details":"text"}]`,
		`[{"id":"1","price":"abc"}]`,
		`[{"id":"1","serviceType":"game","name":"PS5","price":2000,"qty":1}]garbage`,
		`[] []`,
		`null x`,
		`[{}]`,
		`[{"id":"1","serviceType":"bogus","name":"X","price":5,"qty":1}]`,
		`[{"id":"1","serviceType":"game","name":"X","price":-5,"qty":1}]`,
		`[{"id":"1","serviceType":"game","name":"X","price":5,"qty":0}]`,
		`[{"id":"1","serviceType":"game","name":"X","price":5,"qty":-3}]`,
		`[{"serviceType":"game","name":"X","price":5,"qty":1}]`,
	} {
		items, err := UnmarshalItems([]byte(in))
		require.ErrorIs(t, err, ErrCorruptState, "input %q", in)
		assert.Nil(t, items, "input %q", in)
	}
}
