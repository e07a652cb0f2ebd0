package mail

import "fmt"

// RefundNotifier delivers refund decision emails. It satisfies the refunds
// package Notifier interface.
type RefundNotifier struct{}

// NewRefundNotifier creates a mail-backed refund notifier.
func NewRefundNotifier() *RefundNotifier {
	return &RefundNotifier{}
}

// NotifyRefundDecision emails the case owner about an admin decision.
func (n *RefundNotifier) NotifyRefundDecision(email, caseTitle string, approved bool, adminComment string) error {
	subject := "Tu solicitud de reembolso fue rechazada"
	outcome := "rechazada"
	if approved {
		subject = "Tu solicitud de reembolso fue aprobada"
		outcome = "aprobada"
	}

	body := fmt.Sprintf(
		"<p>Hola,</p>"+
			"<p>Tu solicitud de reembolso para el caso <strong>%s</strong> fue %s.</p>"+
			"<p>Comentario del administrador: %s</p>"+
			"<p>Equipo Abogadai</p>",
		caseTitle, outcome, adminComment,
	)

	return SendMail(email, subject, body)
}
