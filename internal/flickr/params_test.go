package flickr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/virtualtourist/internal/geo"
)

func TestEncodeParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			name:   "empty",
			params: map[string]string{},
			want:   "",
		},
		{
			name:   "nil",
			params: nil,
			want:   "",
		},
		{
			name:   "single",
			params: map[string]string{"format": "json"},
			want:   "?format=json",
		},
		{
			name:   "sorted keys",
			params: map[string]string{"per_page": "20", "bbox": "1,2,3,4", "format": "json"},
			want:   "?bbox=1%2C2%2C3%2C4&format=json&per_page=20",
		},
		{
			name:   "space is percent encoded",
			params: map[string]string{"text": "golden gate"},
			want:   "?text=golden%20gate",
		},
		{
			name:   "reserved characters",
			params: map[string]string{"text": "a&b=c?d/e"},
			want:   "?text=a%26b%3Dc%3Fd%2Fe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeParams(tt.params))
		})
	}
}

func TestTextQuery(t *testing.T) {
	q, err := TextQuery("  eiffel tower ", 20)
	require.NoError(t, err)
	assert.Equal(t, "eiffel tower", q.Text())
	assert.Empty(t, q.BBox())
	assert.Equal(t, 20, q.PerPage())
	assert.Equal(t, 0, q.Page())

	_, err = TextQuery("   ", 20)
	assert.Error(t, err)
}

func TestBoxQuery(t *testing.T) {
	box := geo.BoxAround(geo.Coordinate{Latitude: 48, Longitude: 2})
	q := BoxQuery(box, 20)

	assert.Equal(t, "1,47,3,49", q.BBox())
	assert.Empty(t, q.Text())
	assert.Equal(t, map[string]string{"bbox": "1,47,3,49", "per_page": "20"}, q.Params())
}

func TestPerPageClamp(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{20, 20},
		{500, 500},
		{501, 500},
		{10000, 500},
	}

	for _, tt := range tests {
		q := BoxQuery(geo.BoundingBox{}, tt.count)
		assert.Equal(t, tt.want, q.PerPage(), "count %d", tt.count)
	}
}

func TestWithPage(t *testing.T) {
	q, err := TextQuery("harbour", 50)
	require.NoError(t, err)

	paged := q.WithPage(7)

	assert.Equal(t, 0, q.Page(), "original query must not change")
	assert.Equal(t, 7, paged.Page())
	assert.Equal(t, map[string]string{"text": "harbour", "per_page": "50", "page": "7"}, paged.Params())
	assert.NotContains(t, q.Params(), "page")
}
