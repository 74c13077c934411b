package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/models"
)

const longDate = "Monday, January 2, 2006"

var (
	confirmationHTML = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Your Consultation is Confirmed!</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Mode:</strong> Online</p>
    {{if .Link}}<p><strong>Join Link:</strong> <a href="{{.Link}}" target="_blank">Join Meeting</a></p>{{end}}
  </div>
  <p>We're excited to guide you in choosing the best course aligned with your career goals.</p>
  <p>Best regards,<br><strong>The {{.Brand}} Team</strong></p>
</div>`))

	adminHTML = template.Must(template.New("admin").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h3>New Consultation Scheduled</h3>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Phone:</strong> {{.Phone}}</p>
  <p><strong>Date:</strong> {{.Date}}</p>
  <p><strong>Time:</strong> {{.Time}}</p>
  <p><strong>Consultation ID:</strong> {{.ID}}</p>
  <p><strong>Status:</strong> <em>Pending Confirmation</em></p>
</div>`))

	welcomeHTML = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333; line-height: 1.6;">
  <h1 style="color: #2563eb;">Welcome to {{.Brand}}!</h1>
  <p>Dear {{.Name}},</p>
  <p>You've successfully registered, and your journey with us follows this path:</p>
  <div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Month 1: Learn</strong> Gain in-depth knowledge and skills from experts.</p>
    <p><strong>Month 2: Build</strong> Work on real-world projects.</p>
    <p><strong>Month 3: Release</strong> Showcase your final project and get evaluated.</p>
  </div>
  <p>After the course you step into a paid internship that may convert into a full-time role.</p>
  <p>We'll share your batch start date and joining instructions shortly.</p>
  <p>Best Regards,<br><strong>Team {{.Brand}}</strong></p>
  <p style="font-size: 12px; color: #6b7280;">This is an automated message. &copy; {{.Year}} {{.Brand}}.</p>
</div>`))
)

type consultationView struct {
	ID    int64
	Name  string
	Email string
	Phone string
	Date  string
	Time  string
	Link  string
	Brand string
}

func viewOf(c *models.Consultation, brand, link string) consultationView {
	name := strings.TrimSpace(c.FullName)
	if name == "" {
		name = "there"
	}
	return consultationView{
		ID:    c.ID,
		Name:  name,
		Email: c.Email,
		Phone: c.Phone,
		Date:  c.MeetingDate.Format(longDate),
		Time:  c.MeetingTime,
		Link:  link,
		Brand: brand,
	}
}

// ConsultationConfirmation is the message sent to the person who booked.
func ConsultationConfirmation(c *models.Consultation, brand, meetingLink string) (domain.Message, error) {
	v := viewOf(c, brand, meetingLink)
	html, err := render(confirmationHTML, v)
	if err != nil {
		return domain.Message{}, err
	}

	text := fmt.Sprintf("Hello %s,\n\nYour consultation is confirmed.\nDate: %s\nTime: %s\n", v.Name, v.Date, v.Time)
	if meetingLink != "" {
		text += "Join: " + meetingLink + "\n"
	}
	return domain.Message{
		To:      c.Email,
		Subject: fmt.Sprintf("Consultation Confirmation - %s Expert Session", brand),
		HTML:    html,
		Text:    text,
	}, nil
}

// AdminConsultation is the operations notice about a new booking.
func AdminConsultation(c *models.Consultation, adminAddr string) (domain.Message, error) {
	v := viewOf(c, "", "")
	html, err := render(adminHTML, v)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		To:      adminAddr,
		Subject: "New Consultation: " + v.Name,
		HTML:    html,
		Text: fmt.Sprintf("New consultation #%d\nName: %s\nEmail: %s\nPhone: %s\nDate: %s\nTime: %s\nStatus: pending",
			c.ID, v.Name, c.Email, c.Phone, v.Date, v.Time),
	}, nil
}

// Welcome greets a new registration.
func Welcome(r *models.Registration, brand string, now time.Time) (domain.Message, error) {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		name = "Valued User"
	}
	html, err := render(welcomeHTML, struct {
		Name  string
		Brand string
		Year  int
	}{name, brand, now.Year()})
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		To:      r.Email,
		Subject: fmt.Sprintf("Welcome to %s - Your Journey Begins", brand),
		HTML:    html,
		Text:    fmt.Sprintf("Dear %s,\n\nWelcome to %s! We'll share your batch details shortly.\n", name, brand),
	}, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
