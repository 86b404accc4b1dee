package usecase

import (
	"strconv"
	"strings"
	"time"

	"docrequest/internal/domain"
)

const (
	placeholderRecipientName = "{{recipient_name}}"
	placeholderControlCode   = "{{control_code}}"
	placeholderAccessURL     = "{{access_url}}"
	placeholderDeadline      = "{{deadline}}"
	placeholderEvidenceList  = "{{evidence_list}}"
	placeholderReminderCount = "{{reminder_count}}"

	deadlineLayout = "2006-01-02"
)

const defaultRequestTemplate = `<p>Dear {{recipient_name}},</p>
<p>As part of control <strong>{{control_code}}</strong> we need you to provide the following documentation:</p>
{{evidence_list}}
<p>Please upload the files before <strong>{{deadline}}</strong> using this secure link:</p>
<p><a href="{{access_url}}">{{access_url}}</a></p>
<p>This link is personal. Do not forward it.</p>`

const defaultReminderTemplate = `<p>Dear {{recipient_name}},</p>
<p>This is reminder number {{reminder_count}} for the documentation requested under control <strong>{{control_code}}</strong>.</p>
{{evidence_list}}
<p>The deadline is <strong>{{deadline}}</strong>. Please use the secure link from the original request to upload the files.</p>`

const closedTemplate = `<p>Dear {{recipient_name}},</p>
<p>Your documentation request for control <strong>{{control_code}}</strong> has been closed. Thank you for your collaboration.</p>`

type TemplateVars struct {
	RecipientName string
	ControlCode   string
	AccessURL     string
	Deadline      time.Time
	Evidence      []domain.EvidenceItem
	ReminderCount int
}

// RenderTemplate substitutes placeholders verbatim. An empty template selects the default.
func RenderTemplate(tpl string, vars TemplateVars) string {
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultRequestTemplate
	}
	return renderPlaceholders(tpl, vars)
}

func renderPlaceholders(tpl string, vars TemplateVars) string {
	replacer := strings.NewReplacer(
		placeholderRecipientName, vars.RecipientName,
		placeholderControlCode, vars.ControlCode,
		placeholderAccessURL, vars.AccessURL,
		placeholderDeadline, vars.Deadline.Format(deadlineLayout),
		placeholderEvidenceList, EvidenceListHTML(vars.Evidence),
		placeholderReminderCount, strconv.Itoa(vars.ReminderCount),
	)
	return replacer.Replace(tpl)
}

// EvidenceListHTML renders one "- name (Mandatory|Optional)" line per item.
func EvidenceListHTML(items []domain.EvidenceItem) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, item := range items {
		kind := "Optional"
		if item.IsMandatory {
			kind = "Mandatory"
		}
		b.WriteString("<li>- ")
		b.WriteString(item.Name)
		b.WriteString(" (")
		b.WriteString(kind)
		b.WriteString(")</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
