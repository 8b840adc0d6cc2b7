package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/sharedblog/internal/common"
	"golang.org/x/exp/rand"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          m,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

// SendActivationEmail mails the activation token of every newly registered user.
func (s *MailService) SendActivationEmail() error {
	return s.consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue, decodeUserCreated)
}

// SendAccessGrantedEmail tells a user they were given access to a blog.
func (s *MailService) SendAccessGrantedEmail() error {
	return s.consume(common.AccessGrantedKey, common.BlogExchange, common.AccessGrantedQueue, decodeAccessGranted)
}

func decodeUserCreated(body []byte) (*email, error) {
	var data struct {
		Email string
		Token string
	}

	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}

	return &email{
		recipient:    data.Email,
		data:         activationEmailData{ActivationToken: data.Token},
		templateFile: "activation_email.html",
	}, nil
}

func decodeAccessGranted(body []byte) (*email, error) {
	var data struct {
		Email      string
		Username   string
		BlogID     int
		BlogTitle  string
		Permission string
	}

	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}

	return &email{
		recipient: data.Email,
		data: accessGrantedEmailData{
			Username:   data.Username,
			BlogID:     data.BlogID,
			BlogTitle:  data.BlogTitle,
			Permission: data.Permission,
		},
		templateFile: "access_granted_email.html",
	}, nil
}

func (s *MailService) consume(key common.BindingKey, exchange common.Exchange, queue common.Queue, decode decoder) error {
	msgs, err := s.mb.Consume(key, exchange, queue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("queue", string(queue)), slog.String("error", err.Error()))
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				s.handle(msg, decode)

			case <-s.ctx.Done():
				s.logger.Info("stopping consumer due to context cancellation", slog.String("queue", string(queue)))
				return
			}
		}
	}()

	return nil
}

// handle sends the email with exponential backoff and jitter. The message is acked either way so a bad address cannot block the queue.
func (s *MailService) handle(msg amqp.Delivery, decode decoder) {
	defer msg.Ack(false)

	e, err := decode(msg.Body)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		return
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.m.send(e.recipient, e.data, e.templateFile)
		if err == nil {
			s.logger.Info("email sent", slog.String("email", e.recipient), slog.String("template", e.templateFile))
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", e.recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send email", slog.String("email", e.recipient), slog.String("template", e.templateFile), slog.String("error", err.Error()))
}

// Close stops the consumers and waits for them to return.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
