package timing_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctrsim/ctrsim/timing"
)

var _ = Describe("Clock", func() {
	var clock *timing.Clock

	BeforeEach(func() {
		clock = timing.NewClock()
	})

	It("should start at cycle zero", func() {
		Expect(clock.Cycles()).To(Equal(uint64(0)))
		Expect(clock.AudioSamplesDue()).To(Equal(uint64(0)))
		Expect(clock.VideoFramesDue()).To(Equal(uint64(0)))
	})

	It("should accumulate advanced cycles", func() {
		clock.Advance(100)
		clock.Advance(23)

		Expect(clock.Cycles()).To(Equal(uint64(123)))
	})

	It("should derive due audio samples from the cycle count", func() {
		clock.Advance(timing.CyclesPerAudioSample - 1)
		Expect(clock.AudioSamplesDue()).To(Equal(uint64(0)))

		clock.Advance(1)
		Expect(clock.AudioSamplesDue()).To(Equal(uint64(1)))

		clock.Advance(9 * timing.CyclesPerAudioSample)
		Expect(clock.AudioSamplesDue()).To(Equal(uint64(10)))
	})

	It("should derive due video frames from the cycle count", func() {
		clock.Advance(timing.CyclesPerVideoFrame)
		Expect(clock.VideoFramesDue()).To(Equal(uint64(1)))

		clock.Advance(timing.CyclesPerVideoFrame)
		Expect(clock.VideoFramesDue()).To(Equal(uint64(2)))
	})

	It("should pace audio far faster than video", func() {
		Expect(timing.CyclesPerAudioSample).To(BeNumerically("<", timing.CyclesPerVideoFrame))
	})
})
