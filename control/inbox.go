package control

import (
	"errors"
	"sync"
)

// DefaultCapacity is the default number of pending messages.
const DefaultCapacity = 1024

var (
	// ErrInboxFull is returned when inbox has no space for message.
	ErrInboxFull = errors.New("inbox is full")
	// ErrInboxClosed is returned when message is sent into closed inbox.
	ErrInboxClosed = errors.New("inbox is closed")
)

// Inbox is a multi-producer single-consumer message queue. Producers never
// block.
type Inbox struct {
	messages chan Message
	m        sync.RWMutex
	closed   bool
}

// NewInbox returns inbox with provided capacity. Non-positive capacity
// results in DefaultCapacity.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{
		messages: make(chan Message, capacity),
	}
}

// Send queues message. It's safe for concurrent use.
func (i *Inbox) Send(m Message) error {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.closed {
		return ErrInboxClosed
	}
	select {
	case i.messages <- m:
		return nil
	default:
		return ErrInboxFull
	}
}

// Drain calls fn for every message queued at the moment of call, in
// arrival order. Messages sent during the drain are left for the next one.
// It returns number of drained messages.
func (i *Inbox) Drain(fn func(Message)) int {
	n := len(i.messages)
	for j := 0; j < n; j++ {
		fn(<-i.messages)
	}
	return n
}

// Len returns number of pending messages.
func (i *Inbox) Len() int {
	return len(i.messages)
}

// Close rejects further messages. Pending messages can still be drained.
func (i *Inbox) Close() {
	i.m.Lock()
	defer i.m.Unlock()
	i.closed = true
}
