package email

import (
	"bytes"
	"log"
)

// LogSender prints mails to the log instead of delivering them; used when no
// SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody string) error {
	log.Printf("[email] to=%s subject=%q\n%s", to, subject, htmlBody)
	return nil
}

func render(tplName string, data ReceiptData) string {
	var buf bytes.Buffer
	switch tplName {
	case "orderPlaced":
		_ = OrderPlacedTpl.Execute(&buf, data)
	case "invoiceCreated":
		_ = InvoiceCreatedTpl.Execute(&buf, data)
	case "paymentCompleted":
		_ = PaymentCompletedTpl.Execute(&buf, data)
	}
	return buf.String()
}

func RenderOrderPlaced(data ReceiptData) string      { return render("orderPlaced", data) }
func RenderInvoiceCreated(data ReceiptData) string   { return render("invoiceCreated", data) }
func RenderPaymentCompleted(data ReceiptData) string { return render("paymentCompleted", data) }
