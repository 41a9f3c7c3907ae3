package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderEmail wraps plain text in the court's branded HTML layout.
// bodyContent is HTML-escaped and newlines become <br> tags.
func RenderEmail(subject, bodyContent string) string {
	htmlBody := strings.ReplaceAll(html.EscapeString(bodyContent), "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 0; background-color: #f4f1ea; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; border: 1px solid #d6cfbf; }
    .header { background-color: #1f2a44; padding: 32px 30px; text-align: center; }
    .header h1 { color: #f4f1ea; margin: 0; font-size: 22px; }
    .content { padding: 32px 30px; color: #1f2a44; line-height: 1.6; font-size: 15px; }
    .footer { padding: 20px 30px; text-align: center; color: #6b6b6b; font-size: 12px; border-top: 1px solid #d6cfbf; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>This is an automated notice from the court registry. Please do not reply.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// HearingReminder holds what a party needs to know about an upcoming hearing
type HearingReminder struct {
	RecipientName string
	CaseNumber    string
	CaseTitle     string
	Date          string
	Time          string
	CourtRoom     string
	Purpose       string
}

// Subject is the email subject line of the reminder
func (h HearingReminder) Subject() string {
	return fmt.Sprintf("Hearing reminder: %s", h.CaseNumber)
}

// PlainText renders the reminder without markup
func (h HearingReminder) PlainText() string {
	name := h.RecipientName
	if name == "" {
		name = "Sir/Madam"
	}
	purpose := strings.ReplaceAll(h.Purpose, "_", " ")
	return fmt.Sprintf("Dear %s,\n\n"+
		"This is a reminder that case %s (%s) is listed for %s on %s at %s in court room %s.\n\n"+
		"Please be present in time with all relevant documents.",
		name, h.CaseNumber, h.CaseTitle, purpose, h.Date, h.Time, h.CourtRoom)
}

// RenderHearingReminderEmail renders the reminder as branded HTML
func RenderHearingReminderEmail(h HearingReminder) string {
	return RenderEmail(h.Subject(), h.PlainText())
}
