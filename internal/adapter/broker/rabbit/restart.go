package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// restartRequest records which broker layer asked for a restart and the error
// it carried, if any.
type restartRequest struct {
	source string
	err    error
}

// restartSignal is a one-shot mailbox for broker shutdown events. Callbacks
// run on the client library's goroutines and only enqueue; the consume loop
// is the sole reader. Only the first request is retained.
type restartSignal struct {
	c chan restartRequest
}

func newRestartSignal() *restartSignal {
	return &restartSignal{c: make(chan restartRequest, 1)}
}

func (s *restartSignal) fired() <-chan restartRequest {
	return s.c
}

func (s *restartSignal) post(source string, err error) {
	select {
	case s.c <- restartRequest{source: source, err: err}:
	default:
	}
}

func (s *restartSignal) watchConnection(conn *amqp.Connection) {
	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closes; ok {
			s.post("connection", err)
		}
	}()
}

func (s *restartSignal) watchChannel(ch *amqp.Channel) {
	closes := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closes; ok {
			s.post("channel", err)
		}
	}()

	cancels := ch.NotifyCancel(make(chan string, 1))
	go func() {
		if tag, ok := <-cancels; ok {
			s.post("consumer", fmt.Errorf("consumer %s cancelled by broker", tag))
		}
	}()
}
