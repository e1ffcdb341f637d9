package bag_test

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/hookk/amorph"
	"github.com/hookk/amorph/arena"
	"github.com/hookk/amorph/bag"
	"github.com/hookk/amorph/parallel"
)

// Workers each sum a strided slice of the Basel series and push their
// partial results into a bag; after the workers quiesce, the partials are
// collected and reduced. Collection order is deterministic because ForEach
// visits workers in index order and each worker's pushes in push order.
func ExampleBag() {
	const (
		workers = 4
		terms   = 1_000_000
	)
	a, err := arena.New(amorph.Config{Workers: workers})
	if err != nil {
		fmt.Println(err)
		return
	}
	partials := bag.New[float64](a, workers)

	parallel.Workers(workers, func(tid int) {
		sum := 0.0
		for k := tid + 1; k <= terms; k += workers {
			sum += 1 / (float64(k) * float64(k))
		}
		partials.Push(tid, sum)
	})

	var collected []float64
	partials.ForEach(func(v float64) {
		collected = append(collected, v)
	})
	fmt.Printf("%d partials, sum %.4f\n", len(collected), floats.Sum(collected))
	partials.Clear()

	// Output:
	// 4 partials, sum 1.6449
}
