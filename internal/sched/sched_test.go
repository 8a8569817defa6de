package sched

import (
	"testing"

	"lumenmesh/internal/config"
)

// fakeHost is a deterministic Host for tests: tick advances by a fixed step
// each call, next-event tick and temperature are set directly by the test.
type fakeHost struct {
	tick      uint32
	step      uint32
	nextEvent uint32
	tempRaw   uint16
}

func (f *fakeHost) TickNow() uint32 {
	t := f.tick
	f.tick += f.step
	return t
}

func (f *fakeHost) NextRadioEventTick() uint32 { return f.nextEvent }
func (f *fakeHost) SampleTemperatureRaw() uint16 { return f.tempRaw }

func tempToRaw(c int) uint16 {
	return uint16(c*4 + 1100)
}

func TestRunSliceDispatchesHighestPriority(t *testing.T) {
	host := &fakeHost{step: 1, nextEvent: 1_000_000, tempRaw: tempToRaw(25)}
	s := New(host)

	var ranLow, ranHigh bool
	s.RegisterTask(func(budgetUS uint32) bool { ranLow = true; return true }, Low)
	s.RegisterTask(func(budgetUS uint32) bool { ranHigh = true; return true }, High)

	s.RunSlice()

	if !ranHigh || ranLow {
		t.Fatalf("expected only the High priority task to run, ranHigh=%v ranLow=%v", ranHigh, ranLow)
	}
}

func TestRegisterTaskRespectsCap(t *testing.T) {
	host := &fakeHost{step: 1, nextEvent: 1_000_000}
	s := New(host)
	for i := 0; i < config.MaxTasks; i++ {
		if !s.RegisterTask(func(uint32) bool { return false }, Low) {
			t.Fatalf("expected task %d to register within cap", i)
		}
	}
	if s.RegisterTask(func(uint32) bool { return false }, Low) {
		t.Fatalf("expected registration beyond MaxTasks to fail")
	}
}

func TestThermalShutdownHaltsAllTasks(t *testing.T) {
	host := &fakeHost{step: 1, nextEvent: 1_000_000, tempRaw: tempToRaw(72)}
	s := New(host)
	ran := false
	s.RegisterTask(func(uint32) bool { ran = true; return true }, Critical)

	// Warm up until the first thermal sample lands (no assertion on what
	// happens before the sensor is ever read, same as the reference part).
	for i := 0; i < config.ThermalSampleInterval; i++ {
		s.RunSlice()
	}
	if s.ThrottleLevel() != 100 {
		t.Fatalf("expected throttle=100 at 72C, got=%d", s.ThrottleLevel())
	}

	ran = false
	s.RunSlice()
	if ran {
		t.Fatalf("expected no task callback once throttle hits 100")
	}
}

func TestThermalRampProducesExpectedThrottle(t *testing.T) {
	cases := []struct {
		tempC    int
		throttle uint8
	}{
		{50, 0},
		{56, 6},
		{65, 66},
		{72, 100},
	}
	for _, c := range cases {
		host := &fakeHost{step: 1, nextEvent: 1_000_000, tempRaw: tempToRaw(c.tempC)}
		s := New(host)
		for i := 0; i < config.ThermalSampleInterval; i++ {
			s.RunSlice()
		}
		if s.ThrottleLevel() != c.throttle {
			t.Fatalf("temp=%d: expected throttle=%d, got=%d", c.tempC, c.throttle, s.ThrottleLevel())
		}
	}
}

func TestBudgetRespectsGuardAndTimeslotCap(t *testing.T) {
	host := &fakeHost{step: 0, nextEvent: 1000, tempRaw: tempToRaw(25)}
	s := New(host)
	var gotBudget uint32
	s.RegisterTask(func(budgetUS uint32) bool { gotBudget = budgetUS; return false }, Low)

	host.nextEvent = host.tick + config.BLEGuardUS*config.TicksPerMicrosecond + config.AITimeslotUS*config.TicksPerMicrosecond*2
	s.RunSlice()

	if gotBudget == 0 {
		t.Fatalf("expected a nonzero budget to be granted")
	}
	if gotBudget > config.AITimeslotUS {
		t.Fatalf("expected budget capped at AITimeslotUS=%d, got=%d", config.AITimeslotUS, gotBudget)
	}
}

func TestNoBudgetWhenInsideGuardWindow(t *testing.T) {
	host := &fakeHost{step: 0, nextEvent: 0, tempRaw: tempToRaw(25)}
	s := New(host)
	ran := false
	s.RegisterTask(func(uint32) bool { ran = true; return false }, Low)

	host.nextEvent = host.tick + 10
	s.RunSlice()

	if ran {
		t.Fatalf("expected no dispatch when ticks-to-event fall below BLE_GUARD_US")
	}
}

func TestThrottledTaskSkippedAboveHalfThrottle(t *testing.T) {
	host := &fakeHost{step: 1, nextEvent: 1_000_000, tempRaw: tempToRaw(25)}
	s := New(host)
	s.RegisterTask(func(uint32) bool { return false }, Low)
	s.tasks[0].State = Throttled
	s.throttleLevel = 60

	ran := false
	s.tasks[0].Callback = func(uint32) bool { ran = true; return false }
	s.RunSlice()
	if ran {
		t.Fatalf("expected throttled task to be skipped when throttle > 50")
	}
}
