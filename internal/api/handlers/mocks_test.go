package handlers

// ============================================================
// Моки коллабораторов handlers
// ============================================================

// MockEngine - мок состояния планировщика
type MockEngine struct {
	running bool
}

func (m *MockEngine) Running() bool { return m.running }

// MockRegistry - мок реестра подписок
type MockRegistry struct {
	users []string
}

func (m *MockRegistry) Count() int      { return len(m.users) }
func (m *MockRegistry) Users() []string { return m.users }
