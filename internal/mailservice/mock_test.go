package mailservice

import (
	"bytes"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/sharedblog/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	args := m.Called(recipient, data, templateFile)
	return args.Error(0)
}

// MockMessageConsumer hands out a buffered channel per queue. Tests push deliveries with Deliver.
type MockMessageConsumer struct {
	mock.Mock
	mu    sync.Mutex
	chans map[common.Queue]chan amqp.Delivery
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	return m.channel(queue), nil
}

func (m *MockMessageConsumer) Deliver(queue common.Queue, d amqp.Delivery) {
	m.channel(queue) <- d
}

func (m *MockMessageConsumer) channel(queue common.Queue) chan amqp.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chans == nil {
		m.chans = make(map[common.Queue]chan amqp.Delivery)
	}
	if _, ok := m.chans[queue]; !ok {
		m.chans[queue] = make(chan amqp.Delivery, 8)
	}

	return m.chans[queue]
}

// MockAcknowledger counts the acks of the deliveries it is attached to.
type MockAcknowledger struct {
	mu   sync.Mutex
	acks int
}

func (a *MockAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *MockAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	return nil
}

func (a *MockAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func (a *MockAcknowledger) Acks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acks
}
