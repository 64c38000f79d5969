// Package jobqueue implements the blocking FIFO data workers drain: each
// entry is either a data job to execute or a shutdown signal.
package jobqueue

import "github.com/mydumper/myloader-go/pkg/model"

// EventKind distinguishes the two things a data worker can receive.
type EventKind int32

const (
	DataJob EventKind = iota
	Shutdown
)

// Event is one entry in the job channel.
type Event struct {
	Kind EventKind
	Job  model.RestoreJob
}

// Channel is the blocking FIFO between the dispatcher and data workers.
type Channel struct {
	ch chan Event
}

// NewChannel creates a job channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{ch: make(chan Event, buffer)}
}

// PushJob enqueues a data job.
func (c *Channel) PushJob(job model.RestoreJob) {
	c.ch <- Event{Kind: DataJob, Job: job}
}

// PushShutdown enqueues a shutdown signal.
func (c *Channel) PushShutdown() {
	c.ch <- Event{Kind: Shutdown}
}

// Pop blocks until an event is available.
func (c *Channel) Pop() Event {
	return <-c.ch
}

// Len reports the number of events currently buffered, mainly so a worker
// can check whether it is safe to exit once the control phase has ended.
func (c *Channel) Len() int {
	return len(c.ch)
}
