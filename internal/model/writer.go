package model

import "time"

// Participant is a user who can be enrolled as a writer.
type Participant struct {
	ID            int64     `json:"id"`
	Login         string    `json:"login"`
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	Matriculation string    `json:"matriculation"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisplayName returns "Lastname, Firstname" or the login when no name is stored.
func (p Participant) DisplayName() string {
	switch {
	case p.Lastname != "" && p.Firstname != "":
		return p.Lastname + ", " + p.Firstname
	case p.Lastname != "":
		return p.Lastname
	case p.Firstname != "":
		return p.Firstname
	}
	return p.Login
}

// Writer enrols a participant in one task.
type Writer struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	TaskID    int64  `json:"task_id"`
	Pseudonym string `json:"pseudonym"`
}

// TimeExtension grants one writer extra writing time on one task.
type TimeExtension struct {
	ID           int64     `json:"id"`
	WriterID     int64     `json:"writer_id"`
	TaskID       int64     `json:"task_id"`
	ExtraSeconds int64     `json:"extra_seconds"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TimeExtensionRequest is the payload for granting extra writing time.
type TimeExtensionRequest struct {
	ExtraSeconds *int64 `json:"extra_seconds" binding:"required,gte=0,lte=31536000"`
}

// WriterLoginRequest is the payload for participant authentication.
type WriterLoginRequest struct {
	Login    string `json:"login" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// WriterLoginResponse is returned after successful participant login.
type WriterLoginResponse struct {
	Token       string      `json:"token"`
	Participant Participant `json:"participant"`
}
