// Package notification is a small in-process pubsub layer. A notifier fans
// messages from a source channel out to its subscribers; the sync layer uses
// one notifier per event stream to tell consumers that fresh data landed.
package notification

import (
	"fmt"
	"sync"
)

var (
	notifiersMutex sync.Mutex
	notifiers      = make(map[string]*notifier)
)

// Notifier - fans messages from a source channel out to subscribers
type Notifier interface {
	GetName() string
	Start()
	Stop()
	Unsubscribe(id string) error
}

type notifier struct {
	name             string
	source           chan interface{}
	stop             chan struct{}
	stopOnce         sync.Once
	subscribersMutex sync.Mutex
	subscribers      map[string]*notifierSubscriber
}

// RegisterNotifier - creates a notifier named name reading from source
func RegisterNotifier(name string, source chan interface{}) (Notifier, error) {
	notifiersMutex.Lock()
	defer notifiersMutex.Unlock()

	if _, ok := notifiers[name]; ok {
		return nil, fmt.Errorf("a notifier with the name %s is already registered", name)
	}
	newNotifier := &notifier{
		name:        name,
		source:      source,
		stop:        make(chan struct{}),
		subscribers: make(map[string]*notifierSubscriber),
	}
	notifiers[name] = newNotifier
	return newNotifier, nil
}

// Subscribe - attaches output to the notifier named notifierName
func Subscribe(notifierName string, output chan interface{}) (Subscriber, error) {
	notifiersMutex.Lock()
	thisNotifier, ok := notifiers[notifierName]
	notifiersMutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("could not find notifier with the name %s", notifierName)
	}
	return thisNotifier.subscribe(output), nil
}

// Unsubscribe - removes the subscriber with id from the notifier named notifierName
func Unsubscribe(notifierName string, id string) error {
	notifiersMutex.Lock()
	thisNotifier, ok := notifiers[notifierName]
	notifiersMutex.Unlock()
	if !ok {
		return fmt.Errorf("could not find notifier with the name %s", notifierName)
	}
	return thisNotifier.Unsubscribe(id)
}

// GetName - return the name this notifier was registered with
func (n *notifier) GetName() string {
	return n.name
}

// Start - begins forwarding messages from the source channel to subscribers
func (n *notifier) Start() {
	go func() {
		for {
			select {
			case <-n.stop:
				return
			case msg, ok := <-n.source:
				if !ok {
					return
				}
				n.broadcast(msg)
			}
		}
	}()
}

// Stop - stops forwarding, closes subscriber channels and removes the notifier.
// Stopping twice is safe.
func (n *notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.stop)

		n.subscribersMutex.Lock()
		for id, subscriber := range n.subscribers {
			subscriber.close()
			delete(n.subscribers, id)
		}
		n.subscribersMutex.Unlock()

		notifiersMutex.Lock()
		delete(notifiers, n.name)
		notifiersMutex.Unlock()
	})
}

func (n *notifier) broadcast(msg interface{}) {
	n.subscribersMutex.Lock()
	defer n.subscribersMutex.Unlock()
	for _, subscriber := range n.subscribers {
		subscriber.SendMsg(msg)
	}
}

func (n *notifier) subscribe(output chan interface{}) Subscriber {
	n.subscribersMutex.Lock()
	defer n.subscribersMutex.Unlock()

	newSubscriber := newNotifierSubscriber(n.name, output)
	n.subscribers[newSubscriber.GetID()] = newSubscriber
	return newSubscriber
}

// Unsubscribe - stop sending to the subscriber identified by id
func (n *notifier) Unsubscribe(id string) error {
	n.subscribersMutex.Lock()
	defer n.subscribersMutex.Unlock()

	subscriber, ok := n.subscribers[id]
	if !ok {
		return fmt.Errorf("notifier %s has no subscriber with id %s", n.name, id)
	}
	subscriber.close()
	delete(n.subscribers, id)
	return nil
}
