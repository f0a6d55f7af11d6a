package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	_ "time/tzdata" // Asia/Kolkata must resolve on hosts without zoneinfo

	"urja/internal/domain"
)

const (
	// SenderName is the display name used in the From header.
	SenderName = "Urja Contact Form"

	displayZone   = "Asia/Kolkata"
	displayLayout = "2/1/2006, 3:04:05 pm"
	missingTime   = "N/A"
)

var displayLocation = loadDisplayLocation()

func loadDisplayLocation() *time.Location {
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// Content is a rendered notification.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

type view struct {
	Name             string
	Company          string
	Email            string
	Phone            string
	Requirement      string
	RequirementLines []string
	SubmittedAt      string
}

var textTmpl = texttemplate.Must(texttemplate.New("text").Parse(`New Contact Form Submission

Name: {{.Name}}
Company: {{.Company}}
Email: {{.Email}}
Phone: {{.Phone}}

Project Requirement:
{{.Requirement}}

Submitted at: {{.SubmittedAt}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
h2 { color: #2563eb; border-bottom: 2px solid #2563eb; padding-bottom: 10px; }
.field { margin: 15px 0; }
.field strong { display: inline-block; width: 120px; color: #555; }
.requirement { background-color: #f3f4f6; padding: 15px; border-radius: 5px; margin: 15px 0; }
.footer { margin-top: 30px; padding-top: 15px; border-top: 1px solid #e5e7eb; font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
<div class="container">
<h2>New Contact Form Submission</h2>
<div class="field"><strong>Name:</strong> {{.Name}}</div>
<div class="field"><strong>Company:</strong> {{.Company}}</div>
<div class="field"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></div>
<div class="field"><strong>Phone:</strong> <a href="tel:{{.Phone}}">{{.Phone}}</a></div>
<div class="field"><strong>Project Requirement:</strong></div>
<div class="requirement">{{range $i, $line := .RequirementLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div>
<div class="footer">
<p>Submitted at: {{.SubmittedAt}}</p>
<p>This is an automated notification from Urja Contact Form.</p>
</div>
</div>
</body>
</html>
`))

// Subject returns the notification subject for an inquiry.
func Subject(inquiry *domain.Inquiry) string {
	return fmt.Sprintf("New Inquiry from %s - %s", inquiry.Name, inquiry.Company)
}

// FormatSubmittedAt renders t in the display zone, or N/A for the zero time.
func FormatSubmittedAt(t time.Time) string {
	if t.IsZero() {
		return missingTime
	}
	return t.In(displayLocation).Format(displayLayout)
}

// Render produces the subject and both bodies for an inquiry.
func Render(inquiry *domain.Inquiry) (*Content, error) {
	requirement := strings.ReplaceAll(inquiry.Requirement, "\r\n", "\n")
	v := view{
		Name:             inquiry.Name,
		Company:          inquiry.Company,
		Email:            inquiry.Email,
		Phone:            inquiry.Phone,
		Requirement:      requirement,
		RequirementLines: strings.Split(requirement, "\n"),
		SubmittedAt:      FormatSubmittedAt(inquiry.CreatedAt),
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &Content{
		Subject: Subject(inquiry),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
