package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collect(output chan interface{}) chan []interface{} {
	done := make(chan []interface{}, 1)
	go func() {
		received := []interface{}{}
		for msg := range output {
			received = append(received, msg)
		}
		done <- received
	}()
	return done
}

func TestRegisterNotifier(t *testing.T) {
	source := make(chan interface{})
	notifier1, err := RegisterNotifier("regnotifier", source)
	assert.Nil(t, err, "Error returned by RegisterNotifier")
	assert.Equal(t, "regnotifier", notifier1.GetName(), "GetName did not return what was expected")

	// a second notifier with the same name is rejected
	_, err = RegisterNotifier("regnotifier", source)
	assert.NotNil(t, err, "RegisterNotifier should have returned an err")

	notifier1.Stop()
	// the name is free again after a stop
	notifier2, err := RegisterNotifier("regnotifier", source)
	assert.Nil(t, err, "The notifier name was not released by Stop")
	notifier2.Stop()
}

func TestSubscribersReceiveMessages(t *testing.T) {
	source := make(chan interface{})
	thisNotifier, _ := RegisterNotifier("fanout", source)
	thisNotifier.Start()
	defer thisNotifier.Stop()

	out1 := make(chan interface{}, 4)
	out2 := make(chan interface{}, 4)
	done1 := collect(out1)
	done2 := collect(out2)
	_, err := Subscribe("fanout", out1)
	assert.Nil(t, err, "There was an unexpected error subscribing")
	_, err = Subscribe("fanout", out2)
	assert.Nil(t, err, "There was an unexpected error subscribing")

	source <- "refresh-complete"
	source <- "refresh-complete-2"
	time.Sleep(50 * time.Millisecond)
	thisNotifier.Stop()

	received1 := <-done1
	received2 := <-done2
	assert.Equal(t, []interface{}{"refresh-complete", "refresh-complete-2"}, received1, "Subscriber 1 did not receive the messages in order")
	assert.Equal(t, []interface{}{"refresh-complete", "refresh-complete-2"}, received2, "Subscriber 2 did not receive the messages in order")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	source := make(chan interface{})
	thisNotifier, _ := RegisterNotifier("unsub", source)
	thisNotifier.Start()
	defer thisNotifier.Stop()

	output := make(chan interface{}, 4)
	done := collect(output)
	subscriber, _ := Subscribe("unsub", output)

	source <- "first"
	time.Sleep(50 * time.Millisecond)
	subscriber.Close()
	source <- "second"
	time.Sleep(50 * time.Millisecond)

	received := <-done
	assert.Equal(t, []interface{}{"first"}, received, "The subscriber received a message after unsubscribing")

	err := thisNotifier.Unsubscribe(subscriber.GetID())
	assert.NotNil(t, err, "Unsubscribing an unknown id should have returned an err")
}

func TestSlowSubscriberDoesNotBlockBroadcast(t *testing.T) {
	source := make(chan interface{})
	thisNotifier, _ := RegisterNotifier("slowsub", source)
	thisNotifier.Start()
	defer thisNotifier.Stop()

	// never drained, full after the first message
	stuck := make(chan interface{}, 1)
	_, err := Subscribe("slowsub", stuck)
	assert.Nil(t, err, "There was an unexpected error subscribing")

	healthy := make(chan interface{}, 8)
	done := collect(healthy)
	_, err = Subscribe("slowsub", healthy)
	assert.Nil(t, err, "There was an unexpected error subscribing")

	for i := 0; i < 5; i++ {
		select {
		case source <- i:
		case <-time.After(time.Second):
			t.Fatal("the broadcast stalled behind a stuck subscriber")
		}
	}
	time.Sleep(50 * time.Millisecond)
	thisNotifier.Stop()

	received := <-done
	assert.Len(t, received, 5, "The healthy subscriber missed messages")
	// the stuck subscriber keeps only the most recent message
	assert.Equal(t, 4, <-stuck, "The stuck subscriber did not hold the latest message")
}

func TestSubscribeUnknownNotifier(t *testing.T) {
	_, err := Subscribe("never-registered", make(chan interface{}))
	assert.NotNil(t, err, "Subscribing to an unknown notifier should have returned an err")

	err = Unsubscribe("never-registered", "some-id")
	assert.NotNil(t, err, "Unsubscribing from an unknown notifier should have returned an err")
}
