package queue

import (
	"context"
	"errors"
)

// ErrQueueFull signals backpressure to the producer. The dispatcher reports
// it upward instead of dropping the record.
var ErrQueueFull = errors.New("outreach queue is full")

var ErrQueueClosed = errors.New("outreach queue is closed")

// OutreachTask is the dispatch record handed to outreach consumers after an
// assignment has been committed. It carries everything the transport needs
// so consumers never have to read the database on the hot path.
type OutreachTask struct {
	AssignmentID string  `json:"assignment_id"`
	LeadID       string  `json:"lead_id"`
	WorkerID     string  `json:"worker_id"`
	WorkerName   string  `json:"worker_name"`
	WorkerPhone  string  `json:"worker_phone"`
	WorkerEmail  string  `json:"worker_email"`
	LeadName     string  `json:"lead_name"`
	City         string  `json:"city"`
	Service      string  `json:"service"`
	DistanceKM   float64 `json:"distance_km"`
}

// OutreachQueue is a bounded FIFO of dispatch records. Enqueue never blocks:
// when the bound is hit the producer gets ErrQueueFull. A record is delivered
// to at most one consumer.
type OutreachQueue struct {
	tasks chan OutreachTask
}

func NewOutreachQueue(capacity int) *OutreachQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &OutreachQueue{
		tasks: make(chan OutreachTask, capacity),
	}
}

func (q *OutreachQueue) Enqueue(task OutreachTask) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a record is available or the context is cancelled.
func (q *OutreachQueue) Dequeue(ctx context.Context) (OutreachTask, error) {
	select {
	case task, ok := <-q.tasks:
		if !ok {
			return OutreachTask{}, ErrQueueClosed
		}
		return task, nil
	case <-ctx.Done():
		return OutreachTask{}, ctx.Err()
	}
}

func (q *OutreachQueue) Depth() int {
	return len(q.tasks)
}
