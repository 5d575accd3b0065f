package rss_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/party"
)

// Property: for randomized x and y, reconstructing a sharing and opening
// the result of Mult match the plaintext values modulo 2^d (spec.md §8,
// "Replicated op correctness").
var _ = Describe("replicated sharing", func() {
	const d = 20
	mod := uint64(1) << d

	It("reconstructs additive shares of random values", func() {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 25; i++ {
			x := rng.Uint64() % mod
			shares := rss.ShareArithLocal(rss.NewScalar(x, d), rss.NewScalar(rng.Uint64(), d), rss.NewScalar(rng.Uint64(), d))

			rings := newSimRings()
			opened := make([]uint64, 3)
			errs := run3(func(id party.ID) error {
				v, err := rss.OpenArith(rings[id], i+1, shares[id], d)
				opened[id] = v.Uint64()
				return err
			})
			for _, e := range errs {
				Expect(e).NotTo(HaveOccurred())
			}
			for _, v := range opened {
				Expect(v).To(Equal(x))
			}
		}
	})

	It("computes Mult correctly for random ring elements", func() {
		rng := rand.New(rand.NewSource(2))
		for i := 0; i < 15; i++ {
			x := rng.Uint64() % mod
			y := rng.Uint64() % mod
			xs := rss.ShareArithLocal(rss.NewScalar(x, d), rss.NewScalar(rng.Uint64(), d), rss.NewScalar(rng.Uint64(), d))
			ys := rss.ShareArithLocal(rss.NewScalar(y, d), rss.NewScalar(rng.Uint64(), d), rss.NewScalar(rng.Uint64(), d))

			rings := newSimRings()
			keys, err := corr.DeriveRootKeys([]byte{byte(i), byte(i + 1), byte(i + 2)})
			Expect(err).NotTo(HaveOccurred())
			var engines [3]*corr.Engine
			for _, id := range party.All() {
				engines[id] = corr.EngineFor(id, keys)
			}

			results := make([]rss.Share, 3)
			errs := run3(func(id party.ID) error {
				z, err := rss.Mult(rings[id], engines[id], 1, xs[id], ys[id], d)
				results[id] = z
				return err
			})
			for _, e := range errs {
				Expect(e).NotTo(HaveOccurred())
			}

			opened := make([]uint64, 3)
			errs = run3(func(id party.ID) error {
				v, err := rss.OpenArith(rings[id], 2, results[id], d)
				opened[id] = v.Uint64()
				return err
			})
			for _, e := range errs {
				Expect(e).NotTo(HaveOccurred())
			}
			want := (x * y) % mod
			for _, v := range opened {
				Expect(v).To(Equal(want))
			}
		}
	})
})
