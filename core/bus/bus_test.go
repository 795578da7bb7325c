package bus_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/swarmware/swarmware/core/bus"
)

var _ = Describe("Manager", func() {
	var manager bus.Manager

	BeforeEach(func() {
		manager = bus.NewManager()
	})

	It("delivers a broadcast to every subscriber exactly once", func() {
		a := bus.NewClient("a")
		b := bus.NewClient("b")
		c := bus.NewClient("c")
		manager.Subscribe(a)
		manager.Subscribe(b)
		manager.Subscribe(c)

		manager.Send(bus.Event{Type: bus.EventSwarmCreated})

		for _, cl := range []bus.Listener{a, b, c} {
			Eventually(cl.Chan()).Should(Receive(WithTransform(func(e bus.Event) bus.EventType {
				return e.Type
			}, Equal(bus.EventSwarmCreated))))
			Consistently(cl.Chan()).ShouldNot(Receive())
		}
	})

	It("stops delivering after unsubscribe", func() {
		a := bus.NewClient("a")
		manager.Subscribe(a)
		manager.Unsubscribe("a")

		manager.Send(bus.Event{Type: bus.EventAgentDeleted})

		Consistently(a.Chan()).ShouldNot(Receive())
	})

	It("preserves per-listener ordering for sequential sends", func() {
		a := bus.NewClient("a")
		manager.Subscribe(a)

		sequence := []bus.EventType{
			bus.EventSwarmCreated,
			bus.EventAgentCreated,
			bus.EventSecurityAlert,
			bus.EventAlertResolved,
			bus.EventSwarmDeleted,
		}
		for _, t := range sequence {
			manager.Send(bus.Event{Type: t})
		}

		for _, want := range sequence {
			var got bus.Event
			Eventually(a.Chan()).Should(Receive(&got))
			Expect(got.Type).To(Equal(want))
		}
	})

	It("drops events for a saturated listener without blocking the rest", func() {
		slow := bus.NewClient("slow")
		fast := bus.NewClient("fast")
		manager.Subscribe(slow)
		manager.Subscribe(fast)

		// Drain fast continuously; nobody ever reads from slow.
		delivered := make(chan int)
		go func() {
			n := 0
			for range fast.Chan() {
				n++
				if n == 60 {
					break
				}
			}
			delivered <- n
		}()

		for i := 0; i < 60; i++ {
			manager.Send(bus.Event{Type: bus.EventAgentUpdated})
		}

		Eventually(delivered, time.Second).Should(Receive(Equal(60)))
		// Slow's buffer is full and the overflow was dropped, not queued.
		Eventually(func() int { return len(slow.Chan()) }).Should(Equal(cap(slow.Chan())))
		Consistently(func() int { return len(slow.Chan()) }).Should(Equal(cap(slow.Chan())))
	})

	It("reports connected client ids", func() {
		manager.Subscribe(bus.NewClient("a"))
		manager.Subscribe(bus.NewClient("b"))

		Expect(manager.Clients()).To(ConsistOf("a", "b"))

		manager.Unsubscribe("a")
		Expect(manager.Clients()).To(ConsistOf("b"))
	})
})
