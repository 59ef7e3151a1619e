package notify

import (
	"fmt"
	"strings"
	"text/template"
)

var templates = map[Kind]*template.Template{
	KindContributionConfirmed: mustParse(KindContributionConfirmed,
		"Dear {{.member_name}}, we have received your contribution of {{.amount}} towards {{.goal_name}}. Thank you!"),
	KindPledgeConfirmation: mustParse(KindPledgeConfirmation,
		"Dear {{.member_name}}, thank you for pledging {{.amount}} towards {{.goal_name}}. Your pledge is due on {{.due_date}}."),
	KindPledgeReminder: mustParse(KindPledgeReminder,
		"Dear {{.member_name}}, this is a reminder that your pledge of {{.amount}} towards {{.goal_name}} is due on {{.due_date}}."),
	KindPledgeCancelled: mustParse(KindPledgeCancelled,
		"Dear {{.member_name}}, your pledge of {{.amount}} towards {{.goal_name}} has been cancelled."),
}

func mustParse(kind Kind, text string) *template.Template {
	return template.Must(template.New(string(kind)).Option("missingkey=zero").Parse(text))
}

// Render produces the message text for intent.
func Render(intent Intent) (string, error) {
	tmpl, ok := templates[intent.Kind]
	if !ok {
		return "", fmt.Errorf("no template for kind %q", intent.Kind)
	}
	params := intent.Params
	if params == nil {
		params = map[string]string{}
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, params); err != nil {
		return "", fmt.Errorf("render %s: %w", intent.Kind, err)
	}
	return b.String(), nil
}
