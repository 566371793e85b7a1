package smc

import (
	"fmt"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestGainCountMismatch(t *testing.T) {
	g := NewWithT(t)

	for _, n := range []int{0, 1, 3, 5, 7, 12} {
		if n == registry[Classical].Count {
			continue
		}
		gains := make([]float64, n)
		for i := range gains {
			gains[i] = 1.0
		}

		_, err := New(Classical, gains, DefaultOptions())
		g.Expect(err).To(HaveOccurred(), "length %d should be rejected", n)
		g.Expect(err.Error()).To(ContainSubstring("expects 6 gains"))
		g.Expect(err.Error()).To(ContainSubstring(fmt.Sprintf("got %d", n)))
	}
}

func TestNonFiniteGainsRejected(t *testing.T) {
	g := NewWithT(t)

	bad := []float64{5, 5, math.NaN(), 0.5, 0.5, 0.5}
	_, err := New(Classical, bad, DefaultOptions())
	g.Expect(err).To(MatchError(ContainSubstring("finite")))

	bad[2] = math.Inf(1)
	_, err = New(Classical, bad, DefaultOptions())
	g.Expect(err).To(MatchError(ContainSubstring("finite")))
}

func TestNonPositiveGainsRejected(t *testing.T) {
	g := NewWithT(t)

	_, err := New(Classical, []float64{5, 5, 5, 0.5, -0.5, 0.5}, DefaultOptions())
	g.Expect(err).To(MatchError(ContainSubstring("positive")))

	_, err = New(Adaptive, []float64{10, 8, 5, 0, 1}, DefaultOptions())
	g.Expect(err).To(MatchError(ContainSubstring("positive")))
}

func TestSuperTwistingOrdering(t *testing.T) {
	g := NewWithT(t)

	// K1 <= K2 must fail with a message naming the stability requirement.
	_, err := New(SuperTwisting, []float64{2, 4, 12, 6, 8, 4}, DefaultOptions())
	g.Expect(err).To(MatchError(ContainSubstring("K1 > K2 > 0")))

	_, err = New(SuperTwisting, []float64{3, 3, 12, 6, 8, 4}, DefaultOptions())
	g.Expect(err).To(HaveOccurred())

	// K1 > K2 > 0 with positive surface gains constructs.
	ctrl, err := New(SuperTwisting, []float64{4, 2, 12, 6, 8, 4}, DefaultOptions())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl.Type()).To(Equal(SuperTwisting))
}

func TestNilGainsResolveDefaults(t *testing.T) {
	g := NewWithT(t)

	for _, typ := range []Type{Classical, Adaptive, SuperTwisting, HybridAdaptiveSTA} {
		ctrl, err := New(typ, nil, DefaultOptions())
		g.Expect(err).NotTo(HaveOccurred(), "type %s", typ)
		g.Expect(ctrl.Gains()).To(Equal(registry[typ].Defaults))
	}
}

type stubResolver struct {
	gains map[string][]float64
}

func (s stubResolver) GainsFor(name string) []float64 { return s.gains[name] }

func TestNewFromNameResolutionOrder(t *testing.T) {
	g := NewWithT(t)

	resolver := stubResolver{gains: map[string][]float64{
		"classical_smc": {9, 9, 9, 1, 1, 1},
	}}

	// Explicit gains win over the resolver.
	explicit := []float64{5, 5, 5, 0.5, 0.5, 0.5}
	ctrl, err := NewFromName("classical", explicit, resolver, DefaultOptions())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl.Gains()).To(Equal(explicit))

	// Resolver wins over registry defaults.
	ctrl, err = NewFromName("classical", nil, resolver, DefaultOptions())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl.Gains()).To(Equal([]float64{9, 9, 9, 1, 1, 1}))

	// No resolver entry falls through to registry defaults.
	ctrl, err = NewFromName("sta", nil, resolver, DefaultOptions())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctrl.Gains()).To(Equal(registry[SuperTwisting].Defaults))
}

func TestParseTypeAliases(t *testing.T) {
	g := NewWithT(t)

	cases := map[string]Type{
		"classical_smc":           Classical,
		"Classical-SMC":           Classical,
		"  smc ":                  Classical,
		"STA":                     SuperTwisting,
		"Super Twisting":          SuperTwisting,
		"adaptive_smc":            Adaptive,
		"hybrid_adaptive_sta_smc": HybridAdaptiveSTA,
		"Hybrid":                  HybridAdaptiveSTA,
	}
	for name, want := range cases {
		got, err := ParseType(name)
		g.Expect(err).NotTo(HaveOccurred(), "alias %q", name)
		g.Expect(got).To(Equal(want), "alias %q", name)
	}

	_, err := ParseType("pid")
	g.Expect(err).To(MatchError(ContainSubstring("unknown controller type")))
}

func TestInvalidOptionsRejected(t *testing.T) {
	g := NewWithT(t)

	opts := DefaultOptions()
	opts.MaxForce = 0
	_, err := New(Classical, nil, opts)
	g.Expect(err).To(MatchError(ContainSubstring("max force")))

	opts = DefaultOptions()
	opts.Dt = -0.01
	_, err = New(Classical, nil, opts)
	g.Expect(err).To(MatchError(ContainSubstring("dt")))
}
