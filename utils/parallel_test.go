package utils

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallelCoversAllIndicesOnce(t *testing.T) {
	for _, totalSize := range []int{0, 1, 7, 64, 1000, 4411} {
		seen := make([]int32, totalSize)
		var mu sync.Mutex
		ranges := [][2]int{}
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) {},
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				mu.Lock()
				ranges = append(ranges, [2]int{from, to})
				mu.Unlock()
				return func(memberNum, workNum int) {
					seen[workNum]++
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)

		// every index visited exactly once
		for i, n := range seen {
			test.That(t, n, test.ShouldEqual, int32(1))
			_ = i
		}
		// ranges are disjoint
		for i, a := range ranges {
			for j, b := range ranges {
				if i == j {
					continue
				}
				overlap := a[0] < b[1] && b[0] < a[1]
				test.That(t, overlap, test.ShouldBeFalse)
			}
		}
	}
}

func TestGroupWorkParallelGroupDone(t *testing.T) {
	var mu sync.Mutex
	done := 0
	groups := 0
	err := GroupWorkParallel(
		context.Background(),
		100,
		func(numGroups int) { groups = numGroups },
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return nil, func() {
				mu.Lock()
				done++
				mu.Unlock()
			}
		},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, done, test.ShouldEqual, groups)
}
