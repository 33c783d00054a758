package server

import (
	"errors"
	"net"
	"sync"
)

var (
	ErrServerBusy     = errors.New("too many generations in progress")
	ErrTooManyForAddr = errors.New("too many generations from this address")
)

// GenerationLimiter bounds concurrent generations in total and per client IP.
type GenerationLimiter struct {
	mu         sync.Mutex
	ipCounts   map[string]int
	totalCount int
	maxPerIP   int
	maxTotal   int
}

// NewGenerationLimiter creates a limiter. A zero limit is unlimited.
func NewGenerationLimiter(maxTotal, maxPerIP int) *GenerationLimiter {
	return &GenerationLimiter{
		ipCounts: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// TryAcquire takes a slot for ip or reports which limit is exhausted.
func (l *GenerationLimiter) TryAcquire(ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTotal > 0 && l.totalCount >= l.maxTotal {
		return ErrServerBusy
	}
	if l.maxPerIP > 0 && l.ipCounts[ip] >= l.maxPerIP {
		return ErrTooManyForAddr
	}

	l.ipCounts[ip]++
	l.totalCount++
	return nil
}

// Release returns a slot taken by TryAcquire.
func (l *GenerationLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ipCounts[ip] == 0 {
		return
	}
	l.ipCounts[ip]--
	if l.ipCounts[ip] == 0 {
		delete(l.ipCounts, ip)
	}
	l.totalCount--
}

// Active returns the number of generations holding a slot.
func (l *GenerationLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCount
}

// extractIP strips the port from a host:port address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
