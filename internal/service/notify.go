package service

import (
	"bitwise74/diapredict/internal/model"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	KindVerification = "verification"
	KindReport       = "report"
)

// Notifier composes the mails sent to users
type Notifier struct {
	Sender Sender
}

func NewNotifier(s Sender) *Notifier {
	return &Notifier{Sender: s}
}

func (n *Notifier) SendVerification(ctx context.Context, to, link string) error {
	return n.send(ctx, &Mail{
		Kind:    KindVerification,
		To:      to,
		Subject: "Email Verification",
		Body:    "Please click the link to verify your email: " + link,
	})
}

func (n *Notifier) SendReport(ctx context.Context, to string, r *model.Record) error {
	return n.send(ctx, &Mail{
		Kind:    KindReport,
		To:      to,
		Subject: "Diabetes Report",
		Body:    ReportBody(r),
	})
}

func (n *Notifier) send(ctx context.Context, m *Mail) error {
	if err := n.Sender.Send(ctx, m); err != nil {
		return fmt.Errorf("failed to send %s mail, %w", m.Kind, err)
	}

	zap.L().Debug("Mail dispatched", zap.String("kind", m.Kind))

	return nil
}

// ReportBody renders the plaintext prediction report
func ReportBody(r *model.Record) string {
	var b strings.Builder

	b.WriteString("Here is your diabetes prediction report:\n\n")
	fmt.Fprintf(&b, "Pregnancies: %d\n", r.Pregnancies)
	fmt.Fprintf(&b, "Glucose: %d\n", r.Glucose)
	fmt.Fprintf(&b, "Blood Pressure: %d\n", r.BloodPressure)
	fmt.Fprintf(&b, "Skin Thickness: %d\n", r.SkinThickness)
	fmt.Fprintf(&b, "Insulin: %s\n", FormatFloat(r.Insulin))
	fmt.Fprintf(&b, "BMI: %s\n", FormatFloat(r.BMI))
	fmt.Fprintf(&b, "Diabetes Pedigree Function: %s\n", FormatFloat(r.PedigreeFunction))
	fmt.Fprintf(&b, "Age: %d\n", r.Age)
	fmt.Fprintf(&b, "Prediction: %s\n\n", r.Outcome())
	b.WriteString("Thank you for using our service.")

	return b.String()
}

// FormatFloat prints the shortest representation of f, always keeping a
// decimal point for whole numbers (25 -> "25.0")
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}

	return s
}
