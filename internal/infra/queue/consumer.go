package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

// TransportError wraps a delivery failure from an outreach channel.
// Timeouts count as failures, never as success.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransportAdapter is the contract for outreach channels (messaging, email).
// Only queue consumers invoke adapters, never the dispatcher.
type TransportAdapter interface {
	Name() string
	// CanDeliver reports whether the task carries the contact data this
	// channel needs (phone for messaging, email for SMTP).
	CanDeliver(task OutreachTask) bool
	Deliver(ctx context.Context, task OutreachTask) error
}

type AssignmentStatusStore interface {
	UpdateOutreachStatus(ctx context.Context, id, status string) error
}

// LeadLifecycle lets consumers report terminal outreach outcomes back to the
// dispatcher: failure returns the lead to DISPATCH_FAILED for a re-match,
// success closes it.
type LeadLifecycle interface {
	FailAssignedLead(ctx context.Context, leadID string) error
	CloseAssignedLead(ctx context.Context, leadID string) error
}

type ConsumerConfig struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
	SendTimeout time.Duration
	// FailLeads controls whether exhausted outreach also transitions the
	// lead to DISPATCH_FAILED (allowing re-match).
	FailLeads bool
	// CloseOnSent closes the lead once outreach is delivered.
	CloseOnSent bool
	// OnOutcome, when set, observes every terminal delivery outcome
	// (channel, SENT or FAILED).
	OnOutcome func(channel, status string)
}

// Consumer drains the outreach queue with a pool of workers. Each record is
// retried with exponential backoff up to the attempt ceiling.
type Consumer struct {
	queue       *OutreachQueue
	adapters    []TransportAdapter
	assignments AssignmentStatusStore
	leads       LeadLifecycle
	cfg         ConsumerConfig
}

func NewConsumer(q *OutreachQueue, adapters []TransportAdapter, assignments AssignmentStatusStore, leads LeadLifecycle, cfg ConsumerConfig) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 2 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Consumer{
		queue:       q,
		adapters:    adapters,
		assignments: assignments,
		leads:       leads,
		cfg:         cfg,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Printf("[outreach] starting %d consumer(s), max %d attempt(s) per record", c.cfg.Workers, c.cfg.MaxAttempts)

	for i := 0; i < c.cfg.Workers; i++ {
		go c.run(ctx, i)
	}
}

func (c *Consumer) run(ctx context.Context, id int) {
	for {
		task, err := c.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				log.Printf("[outreach] consumer %d stopped", id)
				return
			}
			log.Printf("[outreach] consumer %d dequeue error: %v", id, err)
			continue
		}

		c.process(ctx, task)
	}
}

func (c *Consumer) process(ctx context.Context, task OutreachTask) {
	adapter := c.pickAdapter(task)
	if adapter == nil {
		log.Printf("[outreach] assignment %s: no channel can reach worker %s, marking FAILED", task.AssignmentID, task.WorkerID)
		c.markFailed(ctx, task, "none")
		return
	}

	backoff := c.cfg.BaseBackoff

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
		err := adapter.Deliver(sendCtx, task)
		cancel()

		if err == nil {
			if uerr := c.assignments.UpdateOutreachStatus(ctx, task.AssignmentID, entity.OutreachStatusSent); uerr != nil {
				log.Printf("[outreach] assignment %s delivered via %s but status update failed: %v", task.AssignmentID, adapter.Name(), uerr)
				return
			}
			log.Printf("[outreach] assignment %s delivered via %s (attempt %d)", task.AssignmentID, adapter.Name(), attempt)
			c.observe(adapter.Name(), entity.OutreachStatusSent)
			if c.cfg.CloseOnSent && c.leads != nil {
				if cerr := c.leads.CloseAssignedLead(ctx, task.LeadID); cerr != nil {
					log.Printf("[outreach] lead %s: close after delivery failed: %v", task.LeadID, cerr)
				}
			}
			return
		}

		log.Printf("[outreach] assignment %s attempt %d/%d via %s failed: %v", task.AssignmentID, attempt, c.cfg.MaxAttempts, adapter.Name(), err)

		if attempt == c.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			// Abandoned mid-flight: the assignment stays PENDING and can
			// be re-enqueued through the outreach endpoint.
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	c.markFailed(ctx, task, adapter.Name())
}

func (c *Consumer) observe(channel, status string) {
	if c.cfg.OnOutcome != nil {
		c.cfg.OnOutcome(channel, status)
	}
}

func (c *Consumer) pickAdapter(task OutreachTask) TransportAdapter {
	for _, a := range c.adapters {
		if a.CanDeliver(task) {
			return a
		}
	}
	return nil
}

func (c *Consumer) markFailed(ctx context.Context, task OutreachTask, channel string) {
	if err := c.assignments.UpdateOutreachStatus(ctx, task.AssignmentID, entity.OutreachStatusFailed); err != nil {
		log.Printf("[outreach] assignment %s: failed to mark FAILED: %v", task.AssignmentID, err)
		return
	}

	c.observe(channel, entity.OutreachStatusFailed)

	if !c.cfg.FailLeads || c.leads == nil {
		return
	}

	if err := c.leads.FailAssignedLead(ctx, task.LeadID); err != nil {
		log.Printf("[outreach] lead %s: failed to transition to DISPATCH_FAILED: %v", task.LeadID, err)
	}
}
