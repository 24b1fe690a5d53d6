package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated uint64
	UsersUpdated uint64
	UsersDeleted uint64

	TodosCreated uint64
	TodosUpdated uint64
	TodosDeleted uint64

	TokensIssuedLogin   uint64
	TokensIssuedRefresh uint64

	AuthFailuresCredentials uint64
	AuthFailuresToken       uint64
	AuthFailuresRateLimited uint64
}

// InMemoryRecorder stores metrics in process memory.
type InMemoryRecorder struct {
	usersCreated atomic.Uint64
	usersUpdated atomic.Uint64
	usersDeleted atomic.Uint64

	todosCreated atomic.Uint64
	todosUpdated atomic.Uint64
	todosDeleted atomic.Uint64

	tokensLogin   atomic.Uint64
	tokensRefresh atomic.Uint64

	failCredentials atomic.Uint64
	failToken       atomic.Uint64
	failRateLimited atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:            m.usersCreated.Load(),
		UsersUpdated:            m.usersUpdated.Load(),
		UsersDeleted:            m.usersDeleted.Load(),
		TodosCreated:            m.todosCreated.Load(),
		TodosUpdated:            m.todosUpdated.Load(),
		TodosDeleted:            m.todosDeleted.Load(),
		TokensIssuedLogin:       m.tokensLogin.Load(),
		TokensIssuedRefresh:     m.tokensRefresh.Load(),
		AuthFailuresCredentials: m.failCredentials.Load(),
		AuthFailuresToken:       m.failToken.Load(),
		AuthFailuresRateLimited: m.failRateLimited.Load(),
	}
}

func (m *InMemoryRecorder) IncUserCreated() { m.usersCreated.Add(1) }
func (m *InMemoryRecorder) IncUserUpdated() { m.usersUpdated.Add(1) }
func (m *InMemoryRecorder) IncUserDeleted() { m.usersDeleted.Add(1) }
func (m *InMemoryRecorder) IncTodoCreated() { m.todosCreated.Add(1) }
func (m *InMemoryRecorder) IncTodoUpdated() { m.todosUpdated.Add(1) }
func (m *InMemoryRecorder) IncTodoDeleted() { m.todosDeleted.Add(1) }

// IncTokenIssued counts issued tokens by kind. Unknown kinds are ignored.
func (m *InMemoryRecorder) IncTokenIssued(kind string) {
	switch kind {
	case "login":
		m.tokensLogin.Add(1)
	case "refresh":
		m.tokensRefresh.Add(1)
	}
}

// IncAuthFailure counts rejected authentication attempts by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	switch reason {
	case "credentials":
		m.failCredentials.Add(1)
	case "token":
		m.failToken.Add(1)
	case "rate_limited":
		m.failRateLimited.Add(1)
	}
}
