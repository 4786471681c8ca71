package models

import (
	"time"
)

// ContactForm holds the values posted by the contact page.
type ContactForm struct {
	Name           string `form:"name" json:"name"`
	Email          string `form:"email" json:"email"`
	Message        string `form:"message" json:"message"`
	TurnstileToken string `form:"cf-turnstile-response" json:"turnstile_token"`
}

// Contact is a stored contact message.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Expiry    time.Time `json:"expiry"`
}

// FieldErrors maps a field name to the hint shown next to it.
type FieldErrors map[string]string

func (e FieldErrors) Valid() bool {
	return len(e) == 0
}
