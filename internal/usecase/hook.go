package usecase

import (
	"errors"
	"sync/atomic"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

var (
	// ErrAlreadyActive is returned by Start when logging runs and Force is not set.
	ErrAlreadyActive = errors.New("network logging already active")
	// ErrNotActive is reported by Stop when there is nothing to stop.
	ErrNotActive = errors.New("network logging is not active")
	// ErrHookUnavailable means no interception facility or transport was found.
	ErrHookUnavailable = errors.New("no interception facility or transport to patch")
	// ErrInterceptorConflict means another consumer owns the callback facility.
	ErrInterceptorConflict = errors.New("another network interceptor is active, use force to override")
	// ErrTransportPatched means the transport slot was already replaced by a third party.
	ErrTransportPatched = errors.New("transport already patched, use force to override")
)

// HookKind tags the interception strategy selected at startup.
type HookKind string

const (
	HookNone     HookKind = "none"
	HookCallback HookKind = "callback"
	HookWrap     HookKind = "wrap"
)

// HookState is the hook-specific part of DebugInfo.
type HookState struct {
	Kind                 HookKind
	HasInterceptor       bool
	InterceptorEnabled   bool
	HasOriginalTransport bool
}

// Hook is one transport interception strategy.
type Hook interface {
	Kind() HookKind
	// Enable installs the hook. It must leave no side effects when it fails.
	Enable(force bool) error
	// Disable uninstalls the hook and drops hook-local state. Idempotent.
	Disable()
	State() HookState
}

// Notifier schedules a coalesced change notification.
type Notifier interface {
	Schedule()
}

// FilterHolder shares the current filter policy between the controller,
// which replaces it on Start, and the hooks, which read it per request.
type FilterHolder struct {
	p atomic.Pointer[domain.FilterPolicy]
}

func NewFilterHolder() *FilterHolder {
	h := &FilterHolder{}
	h.p.Store(&domain.FilterPolicy{})
	return h
}

func (h *FilterHolder) Load() domain.FilterPolicy { return *h.p.Load() }

func (h *FilterHolder) Store(p domain.FilterPolicy) { h.p.Store(&p) }
