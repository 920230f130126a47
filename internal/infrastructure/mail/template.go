package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/mknows/bootcamp-api/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const subjectPrefix = "Bootcamp - "

type verificationData struct {
	FullName  string
	Code      string
	ExpiresIn string
}

// renderVerification returns the subject and HTML body of a verification e-mail.
func renderVerification(msg ports.VerificationEmail) (string, string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "email_verification.html", verificationData{
		FullName:  msg.FullName,
		Code:      msg.Code,
		ExpiresIn: humanDuration(msg.ExpiresIn),
	})
	if err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	return subjectPrefix + "Email Verification", buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hour(s)", int(d/time.Hour))
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minute(s)", int(d/time.Minute))
	default:
		return d.String()
	}
}
