package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the resolved caller of a scheduling operation. TutorID or
// StudentID is populated according to Role.
type Actor struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Name      string   `json:"name"`
	TutorID   string   `json:"tutor_id,omitempty"`
	StudentID string   `json:"student_id,omitempty"`
}

// IsTutor reports whether the actor acts as a tutor.
func (a *Actor) IsTutor() bool {
	return a != nil && a.Role == RoleTutor && a.TutorID != ""
}

// IsStudent reports whether the actor acts as a student.
func (a *Actor) IsStudent() bool {
	return a != nil && a.Role == RoleStudent && a.StudentID != ""
}
