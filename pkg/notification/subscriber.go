package notification

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber - subscribes to a notifier
type Subscriber interface {
	GetID() string
	SendMsg(interface{})
	Close() // Unsubscribes and closes channel
}

type notifierSubscriber struct {
	id         string
	notifier   string
	output     chan interface{}
	closeMutex sync.Mutex
	closed     bool
}

func newNotifierSubscriber(notifierName string, output chan interface{}) *notifierSubscriber {
	return &notifierSubscriber{
		id:       uuid.New().String(),
		notifier: notifierName,
		output:   output,
	}
}

// GetID - return the id of this subscriber
func (s *notifierSubscriber) GetID() string {
	return s.id
}

// SendMsg - the notifier calls this on the subscriber to send data. The send
// never blocks; when the subscriber's channel is full the oldest message is
// dropped so a slow consumer cannot stall the broadcast loop.
func (s *notifierSubscriber) SendMsg(data interface{}) {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	if s.closed {
		return
	}
	select {
	case s.output <- data:
	default:
		select {
		case <-s.output:
		default:
		}
		select {
		case s.output <- data:
		default:
		}
	}
}

// Close - used to unsubscribe this Subscriber from its notifier and close the channel
func (s *notifierSubscriber) Close() {
	Unsubscribe(s.notifier, s.id)
}

// close - closes the output channel once
func (s *notifierSubscriber) close() {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	if !s.closed {
		s.closed = true
		close(s.output)
	}
}
