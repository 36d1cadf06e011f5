package anbima

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestPage_PageCount(t *testing.T) {
	testCases := []struct {
		name      string
		page      Page
		wantCount int
		wantOK    bool
	}{
		{"exact multiple", Page{TotalElements: intPtr(30), Size: 10}, 3, true},
		{"remainder", Page{TotalElements: intPtr(25), Size: 10}, 2, true},
		{"single page", Page{TotalElements: intPtr(7), Size: 10}, 0, true},
		{"zero size", Page{TotalElements: intPtr(25), Size: 0}, 0, false},
		{"missing total", Page{Size: 10}, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			count, ok := tc.page.pageCount()
			require.Equal(t, tc.wantCount, count)
			require.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestCollectPages_Order(t *testing.T) {
	first := &Page{Content: []Record{{"n": 0}}, TotalElements: intPtr(3), Size: 1}

	var fetched []int
	fetch := func(_ context.Context, n int) (*Page, error) {
		fetched = append(fetched, n)
		return &Page{Content: []Record{{"n": n}}}, nil
	}

	records, err := collectPages(context.Background(), first, fetch, nil)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, fetched)
	require.Len(t, records, 4)
	for i, r := range records {
		require.Equal(t, i, r["n"])
	}
}

func TestCollectPages_Fallback(t *testing.T) {
	first := &Page{Content: []Record{{"n": 0}}, TotalElements: intPtr(100), Size: 0}

	var fellBack bool
	fetch := func(context.Context, int) (*Page, error) {
		t.Fatal("no further pages may be fetched")
		return nil, nil
	}

	records, err := collectPages(context.Background(), first, fetch, func(*Page) { fellBack = true })
	require.NoError(t, err)
	require.True(t, fellBack)
	require.Equal(t, first.Content, records)
}

func TestCollectPages_StopsOnError(t *testing.T) {
	first := &Page{Content: []Record{{"n": 0}}, TotalElements: intPtr(5), Size: 1}
	boom := errors.New("boom")

	var fetched []int
	fetch := func(_ context.Context, n int) (*Page, error) {
		fetched = append(fetched, n)
		if n == 2 {
			return nil, boom
		}
		return &Page{}, nil
	}

	_, err := collectPages(context.Background(), first, fetch, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{1, 2}, fetched)
}

func TestCollectPages_HugeTotalDoesNotPreallocate(t *testing.T) {
	first := &Page{Content: []Record{{"n": 0}}, TotalElements: intPtr(1 << 40), Size: 1}
	boom := errors.New("boom")

	var calls int
	fetch := func(context.Context, int) (*Page, error) {
		calls++
		return nil, boom
	}

	_, err := collectPages(context.Background(), first, fetch, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}
