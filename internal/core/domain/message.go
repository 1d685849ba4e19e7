package domain

import "time"

// DefaultHelpdeskDomain is the mail domain hosting tenant mailboxes.
const DefaultHelpdeskDomain = "ai-helpdesk.aiinbx.app"

// InboundEmail is a message received on a helpdesk mailbox.
type InboundEmail struct {
	// ID is the provider message id used to reply in-thread.
	ID string `json:"id"`

	// ThreadID identifies the conversation.
	ThreadID string `json:"threadId"`

	// MessageID is the RFC 5322 Message-ID header, if known.
	MessageID string `json:"messageId,omitempty"`

	FromAddress string   `json:"fromAddress"`
	FromName    string   `json:"fromName,omitempty"`
	ToAddresses []string `json:"toAddresses"`
	Subject     string   `json:"subject"`
	Text        string   `json:"text"`
	HTML        string   `json:"html"`

	// ReceivedAt is when the provider accepted the message.
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
}

// InboundEvent is an inbound email plus the transport's verification result.
type InboundEvent struct {
	// Verified is true when the payload signature checked out.
	Verified bool

	// Email is the received message.
	Email InboundEmail
}

// Thread is the prior conversation an inbound email belongs to.
type Thread struct {
	ID       string
	Subject  string
	Messages []InboundEmail
}

// OutgoingReply is the sanitized reply handed to the mail provider.
type OutgoingReply struct {
	// From is the tenant mailbox address.
	From string `json:"from"`

	// HTML is the reply body.
	HTML string `json:"html"`
}

// ReplyStatus is the terminal state of one inbound message.
type ReplyStatus string

// Reply statuses.
const (
	// ReplyStatusSent means a reply was delivered.
	ReplyStatusSent ReplyStatus = "sent"

	// ReplyStatusRejected means a guard stopped the message before generation.
	ReplyStatusRejected ReplyStatus = "rejected"

	// ReplyStatusDuplicate means the message was already handled.
	ReplyStatusDuplicate ReplyStatus = "duplicate"
)

// String returns the string representation.
func (s ReplyStatus) String() string {
	return string(s)
}

// ReplyOutcome reports what happened to one inbound message.
type ReplyOutcome struct {
	// TurnID identifies the agent turn in logs.
	TurnID string

	// Status is the terminal state.
	Status ReplyStatus

	// Reason is the rejection cause when Status is rejected.
	// It wraps one of the inbound rejection sentinels.
	Reason error

	// TenantSlug is the resolved tenant, when known.
	TenantSlug string

	// Steps is the number of tool-requesting model round-trips.
	Steps int

	// Searched reports whether any knowledge-base search ran.
	Searched bool

	// Reply is the delivered reply when Status is sent.
	Reply *OutgoingReply
}

// Sent reports whether a reply was delivered.
func (o *ReplyOutcome) Sent() bool {
	return o != nil && o.Status == ReplyStatusSent
}
