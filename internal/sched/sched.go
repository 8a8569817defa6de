// Package sched implements the Hardware Scheduler (H): a cooperative
// micro-slice manager invoked from the radio stack's idle hook. It grants
// compute to background tasks only inside guaranteed-safe intervals between
// radio events, and thermally throttles or kills AI tasks under heat.
//
// The registry is a plain prioritized task list; there are no goroutines
// and no restart policy here. run_slice
// is called synchronously from the host's idle hook and completes before
// returning; RunSlice is not reentrant.
package sched

import "lumenmesh/internal/config"

// Priority ranks tasks; a smaller value is scheduled first, and ties go to
// the first-registered task.
type Priority uint8

const (
	Critical Priority = iota
	High
	Normal
	Low
)

// State is a task's current lifecycle state.
type State uint8

const (
	Idle State = iota
	Running
	Throttled
	Killed
)

// Callback is invoked with a microsecond budget and must return promptly
// without suspending. The bool return is retained for future priority
// boosting but does not currently alter
// scheduling behavior.
type Callback func(budgetUS uint32) bool

// Task mirrors the reference ScheduledTask record.
type Task struct {
	Callback       Callback
	Priority       Priority
	State          State
	LastRunTick    uint32
	TotalRuntimeUS uint32
	RunCount       uint16
}

// Host supplies the timing and thermal primitives the scheduler needs from
// the platform. It is the Go analog of the reference's clock_time,
// blt_get_next_event_tick, and adc_sample_temp externs.
type Host interface {
	TickNow() uint32
	NextRadioEventTick() uint32
	SampleTemperatureRaw() uint16
}

// Scheduler is the Hardware Scheduler (H).
type Scheduler struct {
	host Host

	tasks []Task

	sampleCounter uint8
	currentTempC  uint8
	throttleLevel uint8
}

// New builds a scheduler bound to host.
func New(host Host) *Scheduler {
	return &Scheduler{host: host, currentTempC: 25}
}

// RegisterTask adds a task at the given priority. Returns false once the
// MaxTasks cap is reached; the existing table is left untouched.
func (s *Scheduler) RegisterTask(cb Callback, priority Priority) bool {
	if len(s.tasks) >= config.MaxTasks {
		return false
	}
	s.tasks = append(s.tasks, Task{Callback: cb, Priority: priority, State: Idle})
	return true
}

// ThrottleLevel returns the current thermal throttle percentage (0-100).
func (s *Scheduler) ThrottleLevel() uint8 { return s.throttleLevel }

// CurrentTemperatureC returns the last-sampled chip temperature.
func (s *Scheduler) CurrentTemperatureC() uint8 { return s.currentTempC }

// CurrentTick returns the host's monotonic tick counter, for callers (the
// learning engine's uptime_phase feature) that need a cheap time reference
// without reaching into the host themselves.
func (s *Scheduler) CurrentTick() uint32 { return s.host.TickNow() }

// AIDutyCycle is a rough estimate of compute consumed by Normal-or-lower
// priority tasks: their cumulative runtime since start, in units of 10 ms,
// wrapped modulo 100. It is not windowed to any recent time span.
func (s *Scheduler) AIDutyCycle() uint8 {
	var total uint32
	for _, t := range s.tasks {
		if t.Priority >= Normal {
			total += t.TotalRuntimeUS
		}
	}
	return uint8((total / 10000) % 100)
}

// RunSlice executes the run_slice contract: update thermals,
// compute the available budget, and dispatch at most one runnable task.
// It runs to completion without suspension and surfaces no errors.
func (s *Scheduler) RunSlice() {
	s.updateThermals()

	if s.throttleLevel >= 100 {
		return
	}

	now := s.host.TickNow()
	nextEvent := s.host.NextRadioEventTick()
	guardTicks := uint32(config.BLEGuardUS) * config.TicksPerMicrosecond

	var availableTicks uint32
	if nextEvent > now+guardTicks {
		availableTicks = nextEvent - now - guardTicks
	}
	if availableTicks == 0 {
		return
	}

	budgetUS := availableTicks / config.TicksPerMicrosecond
	if budgetUS > config.AITimeslotUS {
		budgetUS = config.AITimeslotUS
	}
	budgetUS = budgetUS * uint32(100-s.throttleLevel) / 100
	if budgetUS < 100 {
		return
	}

	best := s.selectTask()
	if best == -1 {
		return
	}

	task := &s.tasks[best]
	start := s.host.TickNow()
	task.State = Running
	task.Callback(budgetUS)

	elapsed := (s.host.TickNow() - start) / config.TicksPerMicrosecond
	task.TotalRuntimeUS += elapsed
	task.RunCount++
	task.LastRunTick = now
	task.State = Idle
}

// selectTask scans registered tasks and returns the index of the
// highest-priority runnable one, or -1 if none qualify. Killed tasks are
// always skipped; Throttled tasks are skipped once throttleLevel exceeds 50.
// Ties favor the first-registered task.
func (s *Scheduler) selectTask() int {
	best := -1
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.State == Killed {
			continue
		}
		if t.State == Throttled && s.throttleLevel > 50 {
			continue
		}
		if best == -1 || t.Priority < s.tasks[best].Priority {
			best = i
		}
	}
	return best
}

// updateThermals samples the temperature every ThermalSampleInterval calls
// and recomputes throttleLevel from it.
func (s *Scheduler) updateThermals() {
	s.sampleCounter++
	if s.sampleCounter < config.ThermalSampleInterval {
		return
	}
	s.sampleCounter = 0

	raw := s.host.SampleTemperatureRaw()
	s.currentTempC = uint8((int(raw) - 1100) / 4)

	switch {
	case int(s.currentTempC) >= config.TempShutdownC:
		s.throttleLevel = 100
	case int(s.currentTempC) >= config.TempThrottleC:
		s.throttleLevel = uint8((int(s.currentTempC) - config.TempThrottleC) * 100 / (config.TempShutdownC - config.TempThrottleC))
	default:
		s.throttleLevel = 0
	}
}
