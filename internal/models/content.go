package models

import "time"

type Registration struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Roles     string    `json:"roles"`
	CV        *Artifact `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Partner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Logo      *Artifact `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type SuccessStory struct {
	ID        int64     `json:"id"`
	Quote     string    `json:"quote"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Rating    *int      `json:"rating"`
	Image     *Artifact `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Course struct {
	ID              int64     `json:"id"`
	Icon            string    `json:"icon"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	FullDescription string    `json:"full_description"`
	Duration        string    `json:"duration"`
	Level           string    `json:"level"`
	Features        []string  `json:"features"`
	CreatedAt       time.Time `json:"created_at"`
}

type FAQ struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
