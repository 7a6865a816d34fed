package queue

import (
    "crypto/tls"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/url"
    "time"

    "github.com/dajohi/goemail"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/unfust/unfust-server/internal/config"
)

// mailSender delivers password reset emails. When SMTP is not
// configured the sender runs disabled and only logs, which keeps
// local development working without a mail server.
type mailSender struct {
    smtp     *goemail.SMTP
    from     string
    disabled bool
}

func newMailSender(cfg config.Config) (*mailSender, error) {
    if cfg.SMTPHost == "" {
        log.Printf("mail: DISABLED (no SMTP_HOST configured)")
        return &mailSender{disabled: true}, nil
    }
    h := fmt.Sprintf("smtps://%s:%s@%s:%s", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost, cfg.SMTPPort)
    u, err := url.Parse(h)
    if err != nil {
        return nil, err
    }
    smtp, err := goemail.NewSMTP(u.String(), &tls.Config{InsecureSkipVerify: true})
    if err != nil {
        return nil, err
    }
    return &mailSender{smtp: smtp, from: cfg.SMTPFrom}, nil
}

func (m *mailSender) sendReset(ev PasswordResetRequestedEvent) error {
    body := fmt.Sprintf("You requested a password reset.\n\n"+
        "Click here to reset your password:\n%s\n\n"+
        "This link expires in 1 hour.\n\n"+
        "If you did not request this, ignore this email.", ev.ResetURL)
    if m.disabled {
        log.Printf("mail: would send password reset to %s", ev.Email)
        return nil
    }
    msg := goemail.NewMessage(m.from, "Unfust password reset", body)
    msg.AddTo(ev.Email)
    return m.smtp.Send(msg)
}

// StartMailConsumer connects to RabbitMQ, declares the
// mail.password_reset queue (durable), and starts consuming
// messages. Each message results in one reset email. The function
// runs a reconnect loop with backoff and keeps running across
// broker restarts; failures on a single message are logged and the
// message rejected so the server continues operating.
func StartMailConsumer(cfg config.Config) error {
    sender, err := newMailSender(cfg)
    if err != nil {
        return err
    }

    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Printf("mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, sender); err != nil {
            log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection, sender *mailSender) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("mail-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(passwordResetQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(passwordResetQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body, sender); err != nil {
            log.Printf("mail-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, sender *mailSender) error {
    var ev PasswordResetRequestedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := sender.sendReset(ev); err != nil {
        return fmt.Errorf("send reset mail to %s: %w", ev.Email, err)
    }
    return nil
}
