// Package notify queues transactional email and delivers it in the background.
package notify

import "fmt"

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome is sent after an account is registered.
func Welcome(email, name string) Message {
	return Message{
		To:      email,
		Subject: "Thanks for joining in!",
		Body:    fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name),
	}
}

// Cancellation is sent after an account is deleted.
func Cancellation(email, name string) Message {
	return Message{
		To:      email,
		Subject: "Sorry to see you go!",
		Body:    fmt.Sprintf("Goodbye, %s. I hope to see you back sometime soon.", name),
	}
}
