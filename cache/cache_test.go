package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func mustBuild(b Builder) *Cache {
	c, err := b.Build()
	Expect(err).NotTo(HaveOccurred())

	return c
}

var _ = Describe("Cache", func() {
	var (
		mockCtrl *gomock.Controller
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("direct mapped with 4 sets and 4-byte blocks", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder().
				WithNumSets(4).
				WithLinesPerSet(1).
				WithBlockSize(4))
		})

		It("should evict conflicting blocks", func() {
			Expect(c.Access(OpRead, 0x0)).To(BeFalse())
			Expect(c.Access(OpRead, 0x10)).To(BeFalse())
			Expect(c.Access(OpRead, 0x0)).To(BeFalse())

			Expect(c.Stats()).To(Equal(Stats{
				Accesses:  3,
				Hits:      0,
				Misses:    3,
				Evictions: 2,
			}))
			Expect(c.Stats().MissRate()).To(Equal(1.0))
		})

		It("should hit within the same block", func() {
			c.Access(OpRead, 0x20)

			Expect(c.Access(OpWrite, 0x23)).To(BeTrue())
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
			Expect(c.Stats().HitRate()).To(Equal(0.5))
		})

		It("should place blocks into the set selected by the index bits", func() {
			c.Access(OpRead, 0x14)

			Expect(c.Set(1).Lines).To(Equal([]Line{{Tag: 1, Valid: true}}))
			Expect(c.Set(0).IsEmpty()).To(BeTrue())
		})
	})

	Context("two-way set associative", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder().
				WithNumSets(4).
				WithLinesPerSet(2).
				WithBlockSize(16))
		})

		It("should hit when repeating an access", func() {
			for _, addr := range []uint32{0x0, 0x1234, 0xFFFFFFF0, 0x40} {
				c.Access(OpRead, addr)

				Expect(c.Access(OpRead, addr)).To(BeTrue())
			}
		})

		It("should keep a recently used line", func() {
			x, y, z := uint32(0x000), uint32(0x040), uint32(0x080)

			c.Access(OpWrite, x)
			c.Access(OpWrite, y)
			Expect(c.Access(OpWrite, x)).To(BeTrue())
			Expect(c.Access(OpWrite, z)).To(BeFalse())

			Expect(c.Access(OpRead, x)).To(BeTrue())
			Expect(c.Access(OpRead, y)).To(BeFalse())
		})

		It("should not count records that are not memory references", func() {
			c.Access(OpRead, 0x0)
			before := c.Stats()
			beforeSets := c.Sets()

			Expect(c.Access(Opcode(8), 0x40)).To(BeFalse())
			Expect(c.Access(Opcode(15), 0x0)).To(BeFalse())

			Expect(c.Stats()).To(Equal(before))
			Expect(c.Sets()).To(Equal(beforeSets))
		})

		It("should return the previous result for non memory records", func() {
			c.Access(OpRead, 0x0)
			c.Access(OpRead, 0x0)

			Expect(c.Access(Opcode(8), 0x1000)).To(BeTrue())
			Expect(c.LastAccess().Address).To(Equal(uint32(0x0)))
		})

		It("should remember the last access", func() {
			Expect(c.LastAccess().Valid).To(BeFalse())

			c.Access(OpInstructionFetch, 0x1234)

			Expect(c.LastAccess()).To(Equal(LastAccess{
				Opcode:  OpInstructionFetch,
				Address: 0x1234,
				Decoded: Address{Tag: 0x48, SetIndex: 3, Offset: 4},
				Hit:     false,
				Valid:   true,
			}))
		})

		It("should report the recency order of each set", func() {
			c.Access(OpRead, 0x00)
			c.Access(OpRead, 0x40)
			c.Access(OpRead, 0x00)

			Expect(c.Sets()[0]).To(Equal(SetSnapshot{
				Index:   0,
				Lines:   []Line{{Tag: 0, Valid: true}, {Tag: 1, Valid: true}},
				Recency: []int{1, 0},
			}))
			Expect(c.Sets()[1].Recency).To(BeEmpty())
		})

		It("should reset", func() {
			c.Access(OpRead, 0x00)

			c.Reset()

			Expect(c.Stats()).To(BeZero())
			Expect(c.LastAccess()).To(BeZero())
			Expect(c.Set(0).IsEmpty()).To(BeTrue())
			Expect(c.Access(OpRead, 0x00)).To(BeFalse())
		})
	})

	DescribeTable("should evict the least recently used block",
		func(ways int) {
			c = mustBuild(MakeBuilder().
				WithNumSets(8).
				WithLinesPerSet(ways).
				WithBlockSize(32))
			stride := uint32(8 * 32)

			for i := 0; i < ways; i++ {
				Expect(c.Access(OpRead, uint32(i)*stride+4)).To(BeFalse())
			}

			Expect(c.Access(OpRead, uint32(ways)*stride)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))

			for i := 1; i <= ways; i++ {
				Expect(c.Access(OpRead, uint32(i)*stride)).To(BeTrue())
			}

			Expect(c.Access(OpRead, 0)).To(BeFalse())
		},
		Entry("direct mapped", 1),
		Entry("2-way", 2),
		Entry("4-way", 4),
		Entry("8-way", 8),
	)

	It("should fill empty lines before evicting", func() {
		c = mustBuild(MakeBuilder().WithLinesPerSet(4).WithBlockSize(4))

		for i := uint32(0); i < 4; i++ {
			c.Access(OpRead, i*4)
		}

		Expect(c.Stats().Evictions).To(BeZero())
		Expect(c.Set(0).Recency).To(Equal([]int{0, 1, 2, 3}))
	})

	It("should not build with an invalid geometry", func() {
		_, err := MakeBuilder().WithNumSets(3).Build()

		Expect(err).To(MatchError(ErrInvalidGeometry))
	})

	It("should reject a zero geometry", func() {
		c, err := New(Geometry{})

		Expect(err).To(MatchError(ErrInvalidGeometry))
		Expect(c).To(BeNil())
	})

	It("should create a cache from a geometry", func() {
		g, err := NewGeometry(2, 2, 8)
		Expect(err).NotTo(HaveOccurred())

		c, err := New(g)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Sets()).To(HaveLen(2))
		Expect(c.Access(OpRead, 0x8)).To(BeFalse())
		Expect(c.Access(OpRead, 0xf)).To(BeTrue())
	})

	Context("with hooks", func() {
		var hook *MockHook

		BeforeEach(func() {
			hook = NewMockHook(mockCtrl)
			c = mustBuild(MakeBuilder().
				WithNumSets(4).
				WithLinesPerSet(1).
				WithBlockSize(4).
				WithHooks(hook))
		})

		It("should invoke hooks after an access", func() {
			hook.EXPECT().Func(HookCtx{
				Domain: c,
				Pos:    HookPosAccess,
				Detail: AccessDetail{
					Opcode:  OpRead,
					Address: 0x5,
					Decoded: Address{Tag: 0, SetIndex: 1, Offset: 1},
					Hit:     false,
					Way:     0,
				},
			})

			c.Access(OpRead, 0x5)
		})

		It("should invoke hooks on eviction", func() {
			hook.EXPECT().
				Func(gomock.Cond(func(x any) bool {
					return x.(HookCtx).Pos == HookPosAccess
				})).
				Times(2)
			hook.EXPECT().Func(HookCtx{
				Domain: c,
				Pos:    HookPosEviction,
				Detail: EvictionDetail{
					SetIndex: 0,
					Way:      0,
					Evicted:  Line{Tag: 0, Valid: true},
					Incoming: 1,
				},
			})

			c.Access(OpRead, 0x0)
			c.Access(OpRead, 0x10)
		})

		It("should report non memory records as skipped", func() {
			hook.EXPECT().Func(HookCtx{
				Domain: c,
				Pos:    HookPosSkip,
				Detail: SkipDetail{Opcode: Opcode(9), Address: 0x40},
			})

			c.Access(Opcode(9), 0x40)

			Expect(c.Stats()).To(Equal(Stats{}))
		})

		It("should not accept the same hook twice", func() {
			Expect(func() { c.AcceptHook(hook) }).To(Panic())
		})

		It("should accept function hooks", func() {
			var hits []bool

			c.AcceptHook(HookFunc(func(ctx HookCtx) {
				if ctx.Pos == HookPosAccess {
					hits = append(hits, ctx.Detail.(AccessDetail).Hit)
				}
			}))
			hook.EXPECT().Func(gomock.Any()).AnyTimes()

			c.Access(OpRead, 0x0)
			c.Access(OpRead, 0x0)

			Expect(hits).To(Equal([]bool{false, true}))
			Expect(c.NumHooks()).To(Equal(2))
			Expect(c.Hooks()).To(HaveLen(2))
			Expect(c.Hooks()[0]).To(BeIdenticalTo(hook))
		})
	})
})
