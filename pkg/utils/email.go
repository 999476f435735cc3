package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"
)

var (
	emailFrom     = os.Getenv("EMAIL_FROM")
	emailPassword = os.Getenv("EMAIL_PASSWORD")
	smtpHost      = os.Getenv("SMTP_HOST")
	smtpPort      = os.Getenv("SMTP_PORT")
	clubName      = os.Getenv("CLUB_NAME")
)

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #059669; margin: 0;">%s</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

func sendEmail(to []string, subject, body string) error {
	if emailFrom == "" || emailPassword == "" || smtpHost == "" || smtpPort == "" {
		return fmt.Errorf("email configuration not set")
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", clubName, emailFrom)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	// Build message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", emailFrom, emailPassword, smtpHost)
	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	if err := smtp.SendMail(addr, auth, emailFrom, to, []byte(message)); err != nil {
		log.Printf("Failed to send email to %v: %v", to, err)
		return err
	}

	return nil
}

// SendWelcomeEmail sends the new-member welcome message
func SendWelcomeEmail(to, name string) error {
	body := fmt.Sprintf(emailHeader, clubName) + fmt.Sprintf(`
		<h3>Welcome, %s!</h3>
		<p>Your membership account has been created. You can now be scheduled
		for bookings and will receive your flight invoices at this address.</p>
	`, name) + emailFooter

	return sendEmail([]string{to}, fmt.Sprintf("Welcome to %s", clubName), body)
}

// SendInvoiceEmail notifies a member that a new invoice was raised
func SendInvoiceEmail(to, reference string, total float64, dueDate time.Time) error {
	body := fmt.Sprintf(emailHeader, clubName) + fmt.Sprintf(`
		<h3>New Invoice</h3>
		<p>An invoice has been raised on your account.</p>
		<table style="width: 100%%; border-collapse: collapse;">
			<tr><td style="padding: 8px; border-bottom: 1px solid #eee;">Reference</td><td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td></tr>
			<tr><td style="padding: 8px; border-bottom: 1px solid #eee;">Total</td><td style="padding: 8px; border-bottom: 1px solid #eee;">$%.2f</td></tr>
			<tr><td style="padding: 8px;">Due</td><td style="padding: 8px;">%s</td></tr>
		</table>
	`, reference, total, dueDate.Format("2 January 2006")) + emailFooter

	return sendEmail([]string{to}, "New invoice from "+clubName, body)
}

// SendPaymentReceiptEmail confirms a completed payment
func SendPaymentReceiptEmail(to, receiptNumber string, amount float64) error {
	body := fmt.Sprintf(emailHeader, clubName) + fmt.Sprintf(`
		<h3>Payment Received</h3>
		<p>Thank you, we have received your payment of <strong>$%.2f</strong>.</p>
		<p>Receipt number: %s</p>
	`, amount, receiptNumber) + emailFooter

	return sendEmail([]string{to}, "Payment receipt", body)
}
