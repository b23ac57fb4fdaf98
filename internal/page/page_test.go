package page_test

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/nameless-analytics/nameless-tools/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		union page.Union

		wantKind  page.Kind
		wantValue any
	}{
		"String":     {union: page.Union{String: ptr("Home")}, wantKind: page.KindString, wantValue: "Home"},
		"Int":        {union: page.Union{Int: ptr(int64(42))}, wantKind: page.KindInt, wantValue: int64(42)},
		"Float":      {union: page.Union{Float: ptr(1.5)}, wantKind: page.KindFloat, wantValue: 1.5},
		"JSON":       {union: page.Union{JSON: map[string]any{"a": 1.0}}, wantKind: page.KindJSON, wantValue: map[string]any{"a": 1.0}},
		"Bool":       {union: page.Union{Bool: ptr(false)}, wantKind: page.KindBool, wantValue: false},
		"Empty":      {},
		"Empty text": {union: page.Union{String: ptr("")}, wantKind: page.KindString, wantValue: ""},

		"String wins over int": {union: page.Union{String: ptr("s"), Int: ptr(int64(1))}, wantKind: page.KindString, wantValue: "s"},
		"Int wins over bool":   {union: page.Union{Int: ptr(int64(0)), Bool: ptr(true)}, wantKind: page.KindInt, wantValue: int64(0)},
		"Float wins over json": {union: page.Union{Float: ptr(2.0), JSON: []any{"x"}}, wantKind: page.KindFloat, wantValue: 2.0},
		"JSON wins over bool":  {union: page.Union{JSON: "doc", Bool: ptr(true)}, wantKind: page.KindJSON, wantValue: "doc"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.union.Resolve()
			assert.Equal(t, tc.wantKind, got.Kind(), "Resolved kind does not match")
			assert.Equal(t, tc.wantKind != 0, got.Valid())
			assert.Equal(t, tc.wantValue, got.Interface(), "Resolved value does not match")
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data string

		wantValid bool
		wantValue any
		wantErr   bool
	}{
		"Object": {data: `{"k":"v"}`, wantValid: true, wantValue: map[string]any{"k": "v"}},
		"Array":  {data: `[1,2]`, wantValid: true, wantValue: []any{1.0, 2.0}},
		"Null":   {data: `null`},

		"Error on invalid document": {data: `{`, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := page.ParseJSON([]byte(tc.data))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantValid, got.Valid())
			assert.Equal(t, tc.wantValue, got.Interface())
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		attrs []page.Attribute

		want map[string]any
	}{
		"Nil attributes give an empty map": {want: map[string]any{}},
		"Single attribute": {
			attrs: []page.Attribute{{Name: "title", Value: page.String("Home")}},
			want:  map[string]any{"title": "Home"},
		},
		"Every kind": {
			attrs: []page.Attribute{
				{Name: "title", Value: page.String("Home")},
				{Name: "views", Value: page.Int(3)},
				{Name: "ratio", Value: page.Float(0.25)},
				{Name: "meta", Value: page.JSON(map[string]any{"lang": "en"})},
				{Name: "logged", Value: page.Bool(true)},
			},
			want: map[string]any{
				"title":  "Home",
				"views":  int64(3),
				"ratio":  0.25,
				"meta":   map[string]any{"lang": "en"},
				"logged": true,
			},
		},
		"First populated value wins on duplicates": {
			attrs: []page.Attribute{
				{Name: "title", Value: page.String("First")},
				{Name: "title", Value: page.String("Second")},
				{Name: "title", Value: page.Int(3)},
			},
			want: map[string]any{"title": "First"},
		},
		"Absent value does not shadow a later duplicate": {
			attrs: []page.Attribute{
				{Name: "title"},
				{Name: "title", Value: page.String("Populated")},
			},
			want: map[string]any{"title": "Populated"},
		},
		"Absent values are excluded": {
			attrs: []page.Attribute{
				{Name: "empty", Value: (page.Union{}).Resolve()},
				{Name: "null json", Value: page.JSON(nil)},
				{Name: "kept", Value: page.Bool(false)},
			},
			want: map[string]any{"kept": false},
		},
		"Unnamed attributes are excluded": {
			attrs: []page.Attribute{{Name: "", Value: page.String("orphan")}},
			want:  map[string]any{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := page.Normalize(tc.attrs)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormattedDate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		date civil.Date

		want string
	}{
		"Stored date":     {date: civil.Date{Year: 2024, Month: 1, Day: 15}, want: "2024-01-15"},
		"Missing date":    {},
		"Padded fields":   {date: civil.Date{Year: 987, Month: 3, Day: 4}, want: "0987-03-04"},
		"Impossible date": {date: civil.Date{Year: 2024, Month: 2, Day: 31}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := page.Record{ID: "P1", Date: tc.date}
			assert.Equal(t, tc.want, r.FormattedDate())
		})
	}
}
