package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	var values map[string]Value
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Hi","price":9.5,"links":[3,1],"empty":null,"flag":true}`), &values))

	assert.Equal(t, KindString, values["title"].Kind())
	assert.Equal(t, "Hi", values["title"].Str())
	n, ok := values["price"].Num()
	assert.True(t, ok)
	assert.Equal(t, 9.5, n)
	assert.Equal(t, []int64{3, 1}, values["links"].IDs())
	assert.True(t, values["empty"].IsNull())
	assert.Equal(t, "1", values["flag"].Str())

	out, err := json.Marshal(TimeValue(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2020-01-02 03:04:05"`, string(out))
}

func TestValueConversions(t *testing.T) {
	assert.Equal(t, "2.5", NumberValue(2.5).Str())
	assert.Equal(t, "1,2,3", IDsValue(1, 2, 3).Str())

	_, ok := StringValue("abc").Num()
	assert.False(t, ok)

	tm, ok := StringValue("2021-03-04").Time()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), tm)

	assert.True(t, IDsValue(1, 2).Equal(IDsValue(1, 2)))
	assert.False(t, IDsValue(1, 2).Equal(IDsValue(2, 1)))
	assert.False(t, StringValue("1").Equal(NumberValue(1)))
}

func TestDiffSets(t *testing.T) {
	tests := []struct {
		name       string
		desired    []string
		current    []string
		wantInsert []string
		wantDelete []string
	}{
		{"empty both", nil, nil, nil, nil},
		{"insert all", []string{"a", "b"}, nil, []string{"a", "b"}, nil},
		{"delete all", nil, []string{"a", "b"}, nil, []string{"a", "b"}},
		{"mixed", []string{"a", "c", "d"}, []string{"a", "b"}, []string{"c", "d"}, []string{"b"}},
		{"duplicates collapse", []string{"x", "x"}, []string{"y", "y"}, []string{"x"}, []string{"y"}},
		{"unchanged", []string{"a", "b"}, []string{"b", "a"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, del := DiffSets(tt.desired, tt.current)
			assert.Equal(t, tt.wantInsert, ins)
			assert.Equal(t, tt.wantDelete, del)
		})
	}
}

func TestParamsFromMap(t *testing.T) {
	p, err := ParamsFromMap(map[string]string{
		"order":        "-datecreated",
		"limit":        "5",
		"page":         "2",
		"paging":       "true",
		"filter":       "foo",
		"returnsingle": "1",
		"where":        "status=published, title=%x%",
		"price":        ">10",
	})
	require.NoError(t, err)
	assert.Equal(t, "-datecreated", p.Order)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, 2, p.Page)
	assert.True(t, p.Paging)
	assert.True(t, p.ReturnSingle)
	assert.Equal(t, "foo", p.Filter)
	assert.Equal(t, map[string]string{"status": "published", "title": "%x%", "price": ">10"}, p.Where)

	_, err = ParamsFromMap(map[string]string{"limit": "many"})
	assert.Error(t, err)
	_, err = ParamsFromMap(map[string]string{"where": "broken"})
	assert.Error(t, err)
}

func TestNewPager(t *testing.T) {
	p := NewPager("entries", 237, 100, 100)
	assert.Equal(t, Pager{For: "entries", Count: 237, TotalPages: 3, Current: 2, ShowingFrom: 101, ShowingTo: 200}, p)

	last := NewPager("entries", 237, 100, 200)
	assert.Equal(t, 201, last.ShowingFrom)
	assert.Equal(t, 237, last.ShowingTo)

	empty := NewPager("entries", 0, 100, 0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, empty.ShowingFrom)
	assert.Equal(t, 0, empty.ShowingTo)
}
