package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe/varpipe/internal/vcf"
)

func TestOrderedCollect_ReordersResults(t *testing.T) {
	results := make(chan WorkResult, 5)
	for _, seq := range []int{3, 1, 4, 0, 2} {
		results <- WorkResult{Seq: seq}
	}
	close(results)

	var got []int
	err := OrderedCollect(results, func(r WorkResult) error {
		got = append(got, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	results := make(chan WorkResult, 3)
	for seq := range 3 {
		results <- WorkResult{Seq: seq}
	}
	close(results)

	boom := errors.New("boom")
	calls := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		calls++
		if r.Seq == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestParallelAnnotate_AllItemsProcessed(t *testing.T) {
	src := &fakeSource{anns: map[string][]*Annotation{}}
	a := NewAnnotator(src)

	const n = 20
	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for i := range n {
			items <- WorkItem{
				Seq:     i,
				Variant: &vcf.Variant{Chrom: "1", Pos: int64(i + 1), Ref: "A", Alt: "T"},
			}
		}
	}()

	results := a.ParallelAnnotate(context.Background(), items, 4)

	seen := make(map[int]bool)
	for r := range results {
		require.NoError(t, r.Err)
		seen[r.Seq] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, src.calls)
}

func TestParallelAnnotate_DefaultWorkerCount(t *testing.T) {
	a := NewAnnotator(&fakeSource{})

	items := make(chan WorkItem, 1)
	items <- WorkItem{Seq: 0, Variant: &vcf.Variant{Chrom: "1", Pos: 1, Ref: "A", Alt: "T"}}
	close(items)

	results := a.ParallelAnnotate(context.Background(), items, 0)

	count := 0
	for range results {
		count++
	}
	assert.Equal(t, 1, count)
}
