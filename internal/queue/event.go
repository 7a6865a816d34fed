// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background mail consumer.
package queue

// PasswordResetRequestedEvent is published when a user asks for a
// password reset and the email resolved to an account. It carries
// everything the mail consumer needs so no database access happens
// on the mail path.
type PasswordResetRequestedEvent struct {
    Email       string `json:"email"`
    ResetURL    string `json:"reset_url"`
    RequestedAt string `json:"requested_at"`
}
