package driver

import (
	"testing"
	"time"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()

	ch1, cancel1 := h.Subscribe("drv-1")
	defer cancel1()
	ch2, cancel2 := h.Subscribe("drv-1")
	defer cancel2()
	other, cancelOther := h.Subscribe("drv-2")
	defer cancelOther()

	pos := Position{DriverID: "drv-1", Latitude: 52.37, Longitude: 4.89, RecordedAt: time.Now()}
	h.Publish(pos)

	for i, ch := range []<-chan Position{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Latitude != pos.Latitude || got.Longitude != pos.Longitude {
				t.Fatalf("subscriber %d: expected %+v, got %+v", i, pos, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no update received", i)
		}
	}

	select {
	case got := <-other:
		t.Fatalf("subscriber of another driver received %+v", got)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("drv-1")
	cancel()

	h.Publish(Position{DriverID: "drv-1"})

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("canceled subscriber received an update")
		}
	default:
	}
}

func TestHubSlowSubscriberDrops(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe("drv-1")
	defer cancel()

	// The buffer is bounded; publishing past it must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Position{DriverID: "drv-1", Latitude: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}
