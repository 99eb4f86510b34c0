package model

import "time"

// AttentionSpan buckets a student's self-reported attention span. Used to
// shape question wording during generation.
type AttentionSpan string

const (
	AttentionSpanShort  AttentionSpan = "short"
	AttentionSpanMedium AttentionSpan = "medium"
	AttentionSpanLong   AttentionSpan = "long"
)

// Student represents a learner account.
type Student struct {
	ID             int           `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	PasswordHash   string        `json:"-"`
	GradeLevel     string        `json:"grade_level"`
	AttentionSpan  AttentionSpan `json:"attention_span"`
	WeakSubjects   []string      `json:"weak_subjects"`
	StrongSubjects []string      `json:"strong_subjects"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// UpdateProfileRequest is the payload for updating the learning profile the
// question generator personalizes against.
type UpdateProfileRequest struct {
	GradeLevel     string        `json:"grade_level" binding:"omitempty,max=40"`
	AttentionSpan  AttentionSpan `json:"attention_span" binding:"omitempty,oneof=short medium long"`
	WeakSubjects   []string      `json:"weak_subjects" binding:"omitempty,dive,min=1,max=60"`
	StrongSubjects []string      `json:"strong_subjects" binding:"omitempty,dive,min=1,max=60"`
}
