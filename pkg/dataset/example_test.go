package dataset_test

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/dataset"
)

func ExampleStore_basic() {
	s := dataset.NewStore(log.New(io.Discard))

	// Raw data plus a derived dataset referencing it.
	_ = s.DefineRaw("x", dataset.Columns{Data: []float64{1, 2, 3}})
	_ = s.DefineDerived("y", dataset.Definition{Data: "x*x"})

	vals, _ := s.Values("y")
	fmt.Println("y:", vals)
	fmt.Println("y depends on:", s.DependsOn("y"))
	// Output:
	// y: [1 4 9]
	// y depends on: [x]
}

func ExampleStore_cascade() {
	s := dataset.NewStore(log.New(io.Discard))
	_ = s.DefineRaw("raw", dataset.Columns{Data: []float64{1, 2}})
	_ = s.DefineDerived("scaled", dataset.Definition{Data: "raw * 10"})

	// A plain delete is refused while formulas still read the dataset.
	_, err := s.Delete("raw", false)
	fmt.Println("delete:", err != nil)

	// Cascade removes the dependents too.
	removed, _ := s.Delete("raw", true)
	fmt.Println("removed:", removed)
	// Output:
	// delete: true
	// removed: [raw scaled]
}
