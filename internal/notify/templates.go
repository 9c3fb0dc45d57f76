package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var subjects = map[Kind]string{
	KindWelcome:  "Welcome to Ramani!",
	KindReset:    "Your password reset token (valid for only 10 minutes)",
	KindApproved: "Your application has been approved",
}

var bodies = template.Must(template.New("emails").Parse(`
{{define "welcome"}}
<div style="font-family: Arial, sans-serif; background-color: #f8f8f8; padding: 20px;">
  <div style="max-width: 600px; background: white; border-radius: 8px; margin: auto; padding: 20px;">
    <h2>Welcome to Ramani, {{.FirstName}}!</h2>
    <p>We're excited to have you join Tanzania's construction network. Confirm your email to activate your account:</p>
    <p><a href="{{.ActionURL}}" style="display: inline-block; background-color: #b22222; color: white; padding: 12px 20px; border-radius: 4px; text-decoration: none;">Activate My Account</a></p>
    <p style="color: #666666; font-size: 13px;">Didn't create an account? Ignore this email or contact support@ramani.co.tz.</p>
    <p>The Ramani Team</p>
  </div>
</div>
{{end}}

{{define "reset"}}
<div style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 30px;">
  <div style="max-width: 600px; background-color: #ffffff; padding: 20px; border-radius: 8px; margin: auto;">
    <h2 style="color: #dc3545;">Password Reset Request</h2>
    <p>Hello {{.FirstName}},</p>
    <p>You recently requested to reset your password. Click the button below to proceed:</p>
    <p><a href="{{.ActionURL}}" style="display: inline-block; background-color: #dc3545; color: white; padding: 12px 20px; border-radius: 4px; text-decoration: none;">Reset Password</a></p>
    <p>This link will expire in 10 minutes. If you did not request this, you can safely ignore it.</p>
    <p>Best,<br><strong>Ramani Support</strong></p>
  </div>
</div>
{{end}}

{{define "approved"}}
<div style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 30px;">
  <div style="max-width: 600px; background-color: #ffffff; padding: 20px; border-radius: 8px; margin: auto;">
    <h2 style="color: #28a745;">Congratulations, {{.FirstName}}!</h2>
    <p>We're pleased to inform you that your application for the site {{.SiteTitle}} has been approved. Please visit the site for work.</p>
    <p>If you have any questions, feel free to reply to this email.</p>
    <p>Warm regards,<br><strong>Ramani Team</strong></p>
  </div>
</div>
{{end}}
`))

// Render produces the subject and HTML body for a message.
func Render(msg Message) (subject, body string, err error) {
	subject, ok := subjects[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown template kind %q", msg.Kind)
	}
	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(msg.Kind), msg); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
