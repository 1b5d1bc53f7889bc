package telemetry

import (
	"sync"
	"testing"
)

func TestStoreUpdateRead(t *testing.T) {
	t.Run("full update round trips", func(t *testing.T) {
		s := NewStore(Snapshot{})
		_, before := s.Read()

		v := s.Update(Fields{
			Temperature:   F32(25.3),
			Humidity:      F32(65.2),
			Pressure:      F32(1013.25),
			GasResistance: U32(125000),
			Altitude:      F32(150.5),
		})

		got, ver := s.Read()
		want := Snapshot{
			Temperature:   25.3,
			Humidity:      65.2,
			Pressure:      1013.25,
			GasResistance: 125000,
			Altitude:      150.5,
		}
		if got != want {
			t.Errorf("Read() = %+v; want %+v", got, want)
		}
		if ver <= before {
			t.Errorf("version = %d; want > %d", ver, before)
		}
		if ver != v {
			t.Errorf("Read version = %d; Update returned %d", ver, v)
		}
	})

	t.Run("partial updates merge", func(t *testing.T) {
		initial := Snapshot{Temperature: 1, Humidity: 2, Pressure: 1000, GasResistance: 4, Altitude: 5}
		s := NewStore(initial)

		s.Update(Fields{Temperature: F32(30)})
		s.Update(Fields{Humidity: F32(40)})

		got, ver := s.Read()
		want := initial
		want.Temperature = 30
		want.Humidity = 40
		if got != want {
			t.Errorf("Read() = %+v; want %+v", got, want)
		}
		if ver != 2 {
			t.Errorf("version = %d; want 2", ver)
		}
	})

	t.Run("air quality fields flag the snapshot", func(t *testing.T) {
		s := NewStore(Snapshot{})
		s.Update(Fields{IAQ: F32(51)})
		got, _ := s.Read()
		if !got.HasAirQuality || got.IAQ != 51 {
			t.Errorf("Read() = %+v; want IAQ 51 with HasAirQuality", got)
		}
	})
}

func TestStoreDirty(t *testing.T) {
	s := NewStore(Snapshot{})
	if s.Dirty() {
		t.Fatal("new store is dirty")
	}

	v1 := s.Update(Fields{Temperature: F32(20)})
	if !s.Dirty() {
		t.Fatal("store not dirty after update")
	}

	v2 := s.Update(Fields{Temperature: F32(21)})
	s.MarkClean(v1)
	if !s.Dirty() {
		t.Error("MarkClean with a stale version cleared the dirty flag")
	}

	s.MarkClean(v2)
	if s.Dirty() {
		t.Error("MarkClean with the latest version left the store dirty")
	}
}

// TestStoreConcurrentReadsAreConsistent checks that a reader never sees a
// snapshot mixing two writes. Every write sets all fields to the same value.
func TestStoreConcurrentReadsAreConsistent(t *testing.T) {
	s := NewStore(Snapshot{})
	const writes = 2000

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			v := float32(i)
			s.Update(Fields{
				Temperature: F32(v), Humidity: F32(v), Pressure: F32(v),
				GasResistance: U32(uint32(i)), Altitude: F32(v),
			})
		}
	}()

	errs := make(chan string, 1)
	go func() {
		defer wg.Done()
		var last uint64
		for last < writes {
			snap, ver := s.Read()
			if ver < last {
				errs <- "version went backwards"
				return
			}
			last = ver
			if ver == 0 {
				continue
			}
			want := float32(ver)
			if snap.Temperature != want || snap.Humidity != want || snap.Pressure != want ||
				snap.Altitude != want || snap.GasResistance != uint32(ver) {
				errs <- "torn snapshot"
				return
			}
		}
	}()
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}
