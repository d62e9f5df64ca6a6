package types

import "time"

type ContactRequest struct {
	Name    string `json:"name" form:"name" validate:"required,max=120"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Phone   string `json:"phone" form:"phone" validate:"omitempty,e164"`
	Website string `json:"website" form:"website" validate:"omitempty,url"`
	Message string `json:"message" form:"message" validate:"required,max=2000"`
}

type Message struct {
	ID              int       `json:"id"`
	SenderName      string    `json:"senderName"`
	RecipientUserID string    `json:"recipientUserId"`
	Subject         string    `json:"subject"`
	Body            string    `json:"body"`
	SentAt          time.Time `json:"sentAt"`
	IsRead          bool      `json:"isRead"`
}

type NewMessage struct {
	RecipientUserID string `json:"recipientUserId" form:"recipient_user_id" validate:"required"`
	Subject         string `json:"subject" form:"subject" validate:"required,max=200"`
	Body            string `json:"body" form:"body" validate:"required,max=5000"`
}

type StepData struct {
	Number      int
	Title       string
	Description string
}

type ServiceData struct {
	Name        string
	Description string
	Icon        string
}
