package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"os"
	"text/template"
)

type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	host string
	port string
	from string
	auth smtp.Auth // nil for local dev (MailHog)
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		host: getenv("SMTP_HOST", "localhost"),
		port: getenv("SMTP_PORT", "1025"),
		from: getenv("SMTP_FROM", "no-reply@flowershop.local"),
		// auth: add when using a real provider (smtp.PlainAuth("", user, pass, host))
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	msg := buildRFC822(s.from, to, subject, htmlBody)
	return smtp.SendMail(addr, s.auth, s.from, []string{to}, msg)
}

func buildRFC822(from, to, subject, html string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&buf, "\r\n%s\r\n", html)
	return buf.Bytes()
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// ReceiptData feeds the receipt templates.
type ReceiptData struct {
	OrderReference string
	Amount         float64
	Currency       string
	InvoiceURL     string
}

// OrderPlacedTpl is sent when a self-pickup order is placed.
var OrderPlacedTpl = template.Must(template.New("orderPlaced").Parse(`
<h2>Дякуємо за замовлення!</h2>
<p>Номер замовлення: <b>{{.OrderReference}}</b></p>
<p>Сума: <b>{{printf "%.2f" .Amount}} {{.Currency}}</b></p>
<p>Наш менеджер зв'яжеться з вами щодо самовивозу.</p>
`))

// InvoiceCreatedTpl is sent when a payment link has been issued.
var InvoiceCreatedTpl = template.Must(template.New("invoiceCreated").Parse(`
<h2>Ваше замовлення сформовано</h2>
<p>Номер замовлення: <b>{{.OrderReference}}</b></p>
<p>Сума: <b>{{printf "%.2f" .Amount}} {{.Currency}}</b></p>
<p>Оплатити: <a href="{{.InvoiceURL}}">{{.InvoiceURL}}</a></p>
`))

// PaymentCompletedTpl confirms a successful payment.
var PaymentCompletedTpl = template.Must(template.New("paymentCompleted").Parse(`
<h2>Оплату отримано</h2>
<p>Замовлення <b>{{.OrderReference}}</b> оплачено.</p>
<p>Сума: <b>{{printf "%.2f" .Amount}} {{.Currency}}</b></p>
<p>Дякуємо, що обрали нас!</p>
`))
