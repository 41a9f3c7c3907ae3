package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	templates "github.com/linesmerrill/court-case-api/templates/html"
)

func TestRenderEmail_EscapesBody(t *testing.T) {
	out := templates.RenderEmail("Notice <1>", "line one\n<script>x</script>")

	assert.Contains(t, out, "<title>Notice &lt;1&gt;</title>")
	assert.Contains(t, out, "line one<br>&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestHearingReminder(t *testing.T) {
	h := templates.HearingReminder{
		RecipientName: "Ada Okafor",
		CaseNumber:    "DC/2026/0001",
		CaseTitle:     "Okafor v. Mensah",
		Date:          "2026-03-10",
		Time:          "10:30",
		CourtRoom:     "4",
		Purpose:       "first_hearing",
	}

	assert.Equal(t, "Hearing reminder: DC/2026/0001", h.Subject())
	assert.Contains(t, h.PlainText(), "Dear Ada Okafor,")
	assert.Contains(t, h.PlainText(), "listed for first hearing on 2026-03-10 at 10:30 in court room 4")

	html := templates.RenderHearingReminderEmail(h)
	assert.Contains(t, html, "Okafor v. Mensah")
}

func TestHearingReminder_NoName(t *testing.T) {
	assert.Contains(t, templates.HearingReminder{}.PlainText(), "Dear Sir/Madam,")
}
