package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arunvm123/ticketbooking/metrics"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	commitTimeout   = 5 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, email *model.EmailTemplate) error
}

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, email *model.EmailTemplate) error {
	s.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}

// NotificationProcessor consumes notification requests and fans them out to a
// fixed pool of workers. Each message is committed once its worker is done
// with it, whether or not delivery succeeded.
type NotificationProcessor struct {
	reader messageReader
	sender EmailSender
	log    *zap.Logger

	workerPool chan chan kafka.Message
	workers    []*notificationWorker

	processedCount int64
	failedCount    int64
	activeWorkers  int64
}

type notificationWorker struct {
	id         int
	processor  *NotificationProcessor
	jobChannel chan kafka.Message
	workerPool chan chan kafka.Message
	quit       chan struct{}
}

func NewNotificationProcessor(reader messageReader, sender EmailSender, maxWorkers int, log *zap.Logger) *NotificationProcessor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	p := &NotificationProcessor{
		reader:     reader,
		sender:     sender,
		log:        log,
		workerPool: make(chan chan kafka.Message, maxWorkers),
		workers:    make([]*notificationWorker, maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		p.workers[i] = &notificationWorker{
			id:         i,
			processor:  p,
			jobChannel: make(chan kafka.Message),
			workerPool: p.workerPool,
			quit:       make(chan struct{}),
		}
	}

	return p
}

// Start dispatches messages until ctx is cancelled, then waits for in-flight
// messages to finish.
func (p *NotificationProcessor) Start(ctx context.Context) error {
	p.log.Info("starting notification processor", zap.Int("workers", len(p.workers)))

	for _, w := range p.workers {
		w.start()
	}
	defer p.shutdown()

	for {
		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.log.Error("failed to fetch message", zap.Error(err))
			continue
		}

		// Blocks while every worker is busy.
		select {
		case jobChannel := <-p.workerPool:
			select {
			case jobChannel <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Processed returns the number of messages handled so far.
func (p *NotificationProcessor) Processed() int64 {
	return atomic.LoadInt64(&p.processedCount)
}

func (p *NotificationProcessor) Failed() int64 {
	return atomic.LoadInt64(&p.failedCount)
}

func (p *NotificationProcessor) ActiveWorkers() int64 {
	return atomic.LoadInt64(&p.activeWorkers)
}

func (w *notificationWorker) start() {
	go func() {
		for {
			w.workerPool <- w.jobChannel

			select {
			case msg := <-w.jobChannel:
				atomic.AddInt64(&w.processor.activeWorkers, 1)
				w.processor.handle(msg)
				atomic.AddInt64(&w.processor.activeWorkers, -1)
			case <-w.quit:
				return
			}
		}
	}()
}

func (p *NotificationProcessor) shutdown() {
	for _, w := range p.workers {
		close(w.quit)
	}

	timeout := time.After(shutdownTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			p.log.Warn("shutdown timeout reached with workers still active",
				zap.Int64("active", p.ActiveWorkers()))
			return
		case <-ticker.C:
			if p.ActiveWorkers() == 0 {
				p.log.Info("notification processor stopped", zap.Int64("processed", p.Processed()))
				return
			}
		}
	}
}

func (p *NotificationProcessor) handle(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if err := p.process(ctx, msg); err != nil {
		atomic.AddInt64(&p.failedCount, 1)
		metrics.WorkerMessages.WithLabelValues("failed").Inc()
		p.log.Error("failed to process notification",
			zap.Int64("offset", msg.Offset),
			zap.Int("partition", msg.Partition),
			zap.Error(err),
		)
	} else {
		metrics.WorkerMessages.WithLabelValues("success").Inc()
	}
	atomic.AddInt64(&p.processedCount, 1)

	if err := p.reader.CommitMessages(ctx, msg); err != nil {
		p.log.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

func (p *NotificationProcessor) process(ctx context.Context, msg kafka.Message) error {
	var req model.NotificationRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal notification request: %w", err)
	}

	email, err := req.GenerateEmail()
	if err != nil {
		return err
	}

	if err := p.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.log.Debug("notification delivered",
		zap.String("type", string(req.Type)),
		zap.String("booking_id", req.BookingData.BookingID),
	)
	return nil
}
