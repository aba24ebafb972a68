package budget

import "sync"

// MetabolicState tracks a process's accumulated token ingestion and
// "temperature" — a proxy for sustained load that cools by a fixed step on
// every tithe that does not trigger a fever.
type MetabolicState struct {
	TokensIngested uint64
	Temperature    float64
	LastFeverAt    uint64 // TokensIngested value at the last fever event, 0 if none yet
	FeverCount     int
}

// FeverEvent is emitted when Temperature crosses CriticalThreshold.
type FeverEvent struct {
	AtTokens    uint64
	Temperature float64
	Count       int
}

// MetabolicEngine converts ingested tokens into heat, emitting FeverEvent
// values through Subscribers whenever temperature crosses the critical
// threshold. Temperature decays by CoolingRate on every tithe that does not
// itself push it over threshold, modeling passive dissipation.
type MetabolicEngine struct {
	mu                sync.Mutex
	state             MetabolicState
	heatPerToken      float64
	coolingRate       float64
	criticalThreshold float64
	subscribers       []func(FeverEvent)
}

// NewMetabolicEngine constructs an engine with the given heat-per-token
// rate, passive cooling rate, and the temperature at which a fever fires.
func NewMetabolicEngine(heatPerToken, coolingRate, criticalThreshold float64) *MetabolicEngine {
	return &MetabolicEngine{
		heatPerToken:      heatPerToken,
		coolingRate:       coolingRate,
		criticalThreshold: criticalThreshold,
	}
}

// OnFever registers a callback invoked synchronously whenever a tithe
// crosses the critical threshold.
func (m *MetabolicEngine) OnFever(fn func(FeverEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Tithe ingests `tokens` worth of work, raising temperature accordingly and
// firing a FeverEvent if the critical threshold is newly crossed.
func (m *MetabolicEngine) Tithe(tokens uint64) MetabolicState {
	m.mu.Lock()

	m.state.TokensIngested += tokens
	m.state.Temperature += float64(tokens) * m.heatPerToken

	wasUnderThreshold := m.state.Temperature-float64(tokens)*m.heatPerToken < m.criticalThreshold
	crossedNow := m.state.Temperature >= m.criticalThreshold

	var fired *FeverEvent
	if wasUnderThreshold && crossedNow {
		m.state.FeverCount++
		m.state.LastFeverAt = m.state.TokensIngested
		fired = &FeverEvent{AtTokens: m.state.TokensIngested, Temperature: m.state.Temperature, Count: m.state.FeverCount}
	} else {
		m.state.Temperature -= m.coolingRate
		if m.state.Temperature < 0 {
			m.state.Temperature = 0
		}
	}

	snapshot := m.state
	var subs []func(FeverEvent)
	subs = append(subs, m.subscribers...)
	m.mu.Unlock()

	if fired != nil {
		for _, s := range subs {
			s(*fired)
		}
	}
	return snapshot
}

// State returns a snapshot of the current metabolic state.
func (m *MetabolicEngine) State() MetabolicState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
