package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/store"
	"github.com/diewo77/invoice-relay/validation"
)

var (
	// ErrConfirmationRequired guards destructive resets.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNotFound             = store.ErrNotFound
	ErrUnknownChannel       = errors.New("unknown delivery channel")
)

// UnknownChannelError names a channel that is not registered. It matches ErrUnknownChannel.
type UnknownChannelError struct {
	Name string
}

func (e *UnknownChannelError) Error() string     { return fmt.Sprintf("%s: %s", ErrUnknownChannel, e.Name) }
func (e *UnknownChannelError) Is(err error) bool { return err == ErrUnknownChannel }

// ValidationError blocks an action before any side effect.
type ValidationError struct {
	Violations validation.Violations
	Reasons    []string
}

func (e *ValidationError) Error() string {
	return "invoice incomplete: " + strings.Join(e.Reasons, "; ")
}

// RenderError is terminal; no artifact is kept.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError carries the channel's classified failure.
type DeliveryError struct {
	Channel string
	Failure delivery.Failure
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %s", e.Channel, e.Failure.Error())
}

func (e *DeliveryError) Unwrap() error { return e.Failure }

// PersistenceError reports a storage write that failed. It does not block delivery.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
