package telemetry

// Memory keeps every record in order in process memory. Used by
// determinism tests, which compare two runs record for record, and by
// the API layer to serve recent trades.
type Memory struct {
	Header    RunHeader
	Trades    []TradeRecord
	Agents    []AgentSnapshot
	Resources []ResourceSnapshot
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Begin(h RunHeader) error {
	m.Header = h
	return nil
}

func (m *Memory) RecordTrade(r TradeRecord) error {
	m.Trades = append(m.Trades, r)
	return nil
}

func (m *Memory) RecordAgent(r AgentSnapshot) error {
	m.Agents = append(m.Agents, r)
	return nil
}

func (m *Memory) RecordResource(r ResourceSnapshot) error {
	m.Resources = append(m.Resources, r)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
