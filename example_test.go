package epsel_test

import (
	"context"
	"fmt"
	"log"

	"github.com/quenbyak/epsel"
	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/structure"
	"github.com/quenbyak/epsel/testutil"
)

func Example() {
	// A committee of two potentials that disagree by a constant force of
	// 0.4 eV/A along x, giving eps_t = 0.2 for every frame.
	lower := testutil.ConstantPotential(testutil.TypeMap, 0)
	upper := &testutil.FakePotential{
		Forces: func(cfg *structure.Configuration) []float32 {
			f := make([]float32, 3*cfg.NumAtoms())
			for i := 0; i < cfg.NumAtoms(); i++ {
				f[3*i] = 0.4
			}
			return f
		},
	}
	ens, err := potential.NewEnsemble("demo",
		potential.Member{Name: "a", Potential: lower},
		potential.Member{Name: "b", Potential: upper},
	)
	if err != nil {
		log.Fatal(err)
	}

	frames := testutil.NewRNG(7).Trajectory(5, 4)
	src := structure.NewSliceSource(frames...)

	sampler := epsel.New(epsel.StaticEnsemble(ens), 0.1, 0.3, 3)
	result, diags, err := sampler.Run(context.Background(), src)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("selected:", result.Indices())
	fmt.Println("scored:", diags.Len())
	fmt.Println("capped:", result.Capped)
	// Output:
	// selected: [0 1 3]
	// scored: 5
	// capped: true
}
