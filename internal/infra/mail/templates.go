package mail

import (
	"bytes"
	"fmt"
	"text/template"
)

// Job offer notification sent to the matched worker. Channel-specific
// formatting beyond these templates is out of scope.
const jobOfferEmailSubject = "New %s job in %s"

const jobOfferEmailBody = `Hello {{.WorkerName}},

A new {{.Service}} job in {{.City}} has been assigned to you.

Client: {{.LeadName}}
Distance from your location: {{.DistanceKM}} km

Please confirm availability as soon as possible.

Best regards,
{{.Sender}}`

const jobOfferTextBody = `Hello {{.WorkerName}}, a new {{.Service}} job in {{.City}} was assigned to you.

Client: {{.LeadName}}
Distance: {{.DistanceKM}} km

Reply "YES" to confirm.

{{.Sender}}`

var (
	emailTemplate = template.Must(template.New("job_offer_email").Parse(jobOfferEmailBody))
	textTemplate  = template.Must(template.New("job_offer_text").Parse(jobOfferTextBody))
)

func BuildJobOfferEmail(data JobOfferData) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render email template: %w", err)
	}
	return fmt.Sprintf(jobOfferEmailSubject, data.Service, data.City), buf.String(), nil
}

func BuildJobOfferText(data JobOfferData) (string, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render message template: %w", err)
	}
	return buf.String(), nil
}
