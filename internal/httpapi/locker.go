package httpapi

import "sync"

// studentLocker предотвращает одновременную обработку двух сканов одного ученика.
type studentLocker struct {
	mu   sync.Mutex
	byID map[int64]*sync.Mutex
}

func newStudentLocker() *studentLocker {
	return &studentLocker{byID: make(map[int64]*sync.Mutex)}
}

func (l *studentLocker) lock(studentID int64) func() {
	l.mu.Lock()
	m, ok := l.byID[studentID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[studentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}
