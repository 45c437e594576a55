package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
	"github.com/san-kum/forcesim/internal/sim"
)

func separation(s *sim.Simulation, a, b dynamo.ID) float64 {
	pa, _ := s.Particle(a)
	pb, _ := s.Particle(b)
	return r2.Norm(r2.Sub(pa.Pos, pb.Pos))
}

var _ = Describe("Simulation", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		var err error
		s, err = sim.New(sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	Context("two repelling particles", func() {
		var a, b dynamo.ID

		BeforeEach(func() {
			var err error
			a, err = s.AddParticle(dynamo.MustParticle(0, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			b, err = s.AddParticle(dynamo.MustParticle(1, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetForces(forces.NewCharge(1), forces.NewDrag(0.4))).To(Succeed())
		})

		It("separates monotonically and settles further apart", func() {
			prev := separation(s, a, b)
			for !s.Tick() {
				d := separation(s, a, b)
				Expect(d).To(BeNumerically(">", prev))
				prev = d
			}
			final := separation(s, a, b)
			Expect(final).To(BeNumerically(">", 5))
			Expect(final).To(BeNumerically("~", 10.17, 0.05))
		})

		It("keeps the pair on the x axis", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			pa, _ := s.Particle(a)
			pb, _ := s.Particle(b)
			Expect(pa.Pos.Y).To(BeZero())
			Expect(pb.Pos.Y).To(BeZero())
			Expect(pa.Pos.X + pb.Pos.X).To(BeNumerically("~", 1, 1e-9))
		})
	})

	Context("two particles on a spring", func() {
		var a, b dynamo.ID

		BeforeEach(func() {
			a, _ = s.AddParticle(dynamo.MustParticle(0, 0, 1))
			b, _ = s.AddParticle(dynamo.MustParticle(200, 0, 1))
			Expect(s.AddSpring(dynamo.Spring{Source: a, Target: b, RestLength: 50, Stiffness: 0.1, Damping: 0.2})).To(Succeed())
			Expect(s.SetForces(forces.NewDrag(0.4), forces.NewSpring())).To(Succeed())
		})

		It("closes monotonically toward the rest length", func() {
			prev := separation(s, a, b)
			for !s.Tick() {
				d := separation(s, a, b)
				Expect(d).To(BeNumerically("<", prev))
				Expect(d).To(BeNumerically(">=", 50))
				prev = d
			}
			Expect(separation(s, a, b)).To(BeNumerically("~", 50, 0.1))
		})
	})

	Context("a symmetric triangle", func() {
		var ids []dynamo.ID

		BeforeEach(func() {
			cfg := sim.DefaultConfig()
			cfg.Theta = 0
			var err error
			s, err = sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			ids = nil
			for k := 0; k < 3; k++ {
				angle := math.Pi/2 + float64(k)*2*math.Pi/3
				id, err := s.AddParticle(dynamo.MustParticle(30*math.Cos(angle), 30*math.Sin(angle), 1))
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, id)
			}
			for k := 0; k < 3; k++ {
				sp := dynamo.Spring{Source: ids[k], Target: ids[(k+1)%3], RestLength: 50, Stiffness: 0.1, Damping: 0.2}
				Expect(s.AddSpring(sp)).To(Succeed())
			}
			Expect(s.SetForces(forces.NewCharge(20), forces.NewDrag(0.4), forces.NewSpring())).To(Succeed())
		})

		It("settles with equal edges around the same centroid", func() {
			res, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Settled).To(BeTrue())

			edges := []float64{
				separation(s, ids[0], ids[1]),
				separation(s, ids[1], ids[2]),
				separation(s, ids[2], ids[0]),
			}
			for _, e := range edges {
				Expect(e).To(BeNumerically("~", edges[0], 1e-6))
				Expect(e).To(BeNumerically("~", 50.16, 0.1))
			}

			var centroid r2.Vec
			for _, id := range ids {
				p, _ := s.Particle(id)
				centroid = r2.Add(centroid, p.Pos)
			}
			Expect(r2.Norm(centroid)).To(BeNumerically("<", 1e-6))
		})
	})

	Context("after settling", func() {
		It("treats further ticks as no-ops", func() {
			a, _ := s.AddParticle(dynamo.MustParticle(0, 0, 1))
			s.AddParticle(dynamo.MustParticle(3, 4, 1))
			Expect(s.SetForces(forces.NewCharge(5), forces.NewDrag(0.3))).To(Succeed())

			_, err := s.Run(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Settled()).To(BeTrue())

			before, _ := s.Particle(a)
			ticks, alpha := s.Ticks(), s.Alpha()
			for i := 0; i < 10; i++ {
				Expect(s.Tick()).To(BeTrue())
			}
			after, _ := s.Particle(a)
			Expect(after).To(Equal(before))
			Expect(s.Ticks()).To(Equal(ticks))
			Expect(s.Alpha()).To(Equal(alpha))
		})

		It("resumes when reheated", func() {
			s.AddParticle(dynamo.MustParticle(0, 0, 1))
			_, _ = s.Run(context.Background(), 0)
			Expect(s.Settled()).To(BeTrue())

			s.Reheat(0.5)
			Expect(s.Settled()).To(BeFalse())
			Expect(s.Alpha()).To(Equal(0.5))
			Expect(s.Tick()).To(BeFalse())
		})
	})
})
