package services

import (
	"bytes"
	"fmt"
	"text/template"
)

const invoiceEmailTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; background-color: #18181b; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color: #18181b; padding: 40px 20px;">
    <tr>
      <td align="center">
        <table width="560" cellpadding="0" cellspacing="0" style="background-color: #27272a; border-radius: 12px; border: 1px solid #3f3f46;">
          <tr>
            <td style="padding: 40px;">
              <h1 style="color: #fafafa; font-size: 24px; font-weight: 700; margin: 0 0 8px 0;">Invoice</h1>
              <p style="color: #a1a1aa; font-size: 13px; margin: 0 0 32px 0;">Invoice ID: {{.InvoiceID}}</p>
              <p style="color: #d4d4d8; font-size: 15px; margin: 0 0 24px 0;">Hi {{.ClientName}},</p>
              <p style="color: #d4d4d8; font-size: 15px; margin: 0 0 24px 0;">Please find your invoice attached. A summary is below.</p>
              <table width="100%" cellpadding="0" cellspacing="0" style="margin: 0 0 32px 0;">
                <tr>
                  <td style="padding: 16px 0; border-top: 1px solid #3f3f46;">
                    <span style="color: #a1a1aa; font-size: 13px;">Description</span><br>
                    <span style="color: #fafafa; font-size: 15px;">{{.Description}}</span>
                  </td>
                </tr>
                <tr>
                  <td style="padding: 16px 0; border-top: 1px solid #3f3f46;">
                    <span style="color: #a1a1aa; font-size: 13px;">Due Date</span><br>
                    <span style="color: #fafafa; font-size: 15px;">{{.DueDate}}</span>
                  </td>
                </tr>
                <tr>
                  <td style="padding: 16px 0; border-top: 1px solid #3f3f46; border-bottom: 1px solid #3f3f46;">
                    <span style="color: #a1a1aa; font-size: 13px;">Amount Due</span><br>
                    <span style="color: #fafafa; font-size: 24px; font-weight: 700;">{{.FormattedAmount}}</span>
                  </td>
                </tr>
              </table>
              <p style="color: #71717a; font-size: 13px; margin: 0;">Thank you for your business.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const reminderEmailTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; background-color: #18181b; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color: #18181b; padding: 40px 20px;">
    <tr>
      <td align="center">
        <table width="560" cellpadding="0" cellspacing="0" style="background-color: #27272a; border-radius: 12px; border: 1px solid #3f3f46;">
          <tr>
            <td style="padding: 40px;">
              <h1 style="color: #fafafa; font-size: 24px; font-weight: 700; margin: 0 0 8px 0;">Payment Reminder</h1>
              <p style="color: #a1a1aa; font-size: 13px; margin: 0 0 32px 0;">Invoice ID: {{.InvoiceID}}</p>
              <p style="color: #d4d4d8; font-size: 15px; margin: 0 0 24px 0;">Hi {{.ClientName}},</p>
              <p style="color: #d4d4d8; font-size: 15px; margin: 0 0 24px 0;">This is a friendly reminder that your invoice for {{.FormattedAmount}} is due on {{.DueDate}}.</p>
              <p style="color: #71717a; font-size: 13px; margin: 0;">If you have already paid, please disregard this message.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

type emailTemplateData struct {
	InvoiceID       string
	ClientName      string
	Description     string
	DueDate         string
	FormattedAmount string
}

var (
	invoiceTmpl  = template.Must(template.New("invoice").Parse(invoiceEmailTemplate))
	reminderTmpl = template.Must(template.New("reminder").Parse(reminderEmailTemplate))
)

// InvoiceEmailHTML renders the primary invoice email body
func InvoiceEmailHTML(doc *InvoiceDocument) (string, error) {
	return renderEmailTemplate(invoiceTmpl, doc)
}

// ReminderEmailHTML renders the payment reminder email body
func ReminderEmailHTML(doc *InvoiceDocument) (string, error) {
	return renderEmailTemplate(reminderTmpl, doc)
}

func renderEmailTemplate(tmpl *template.Template, doc *InvoiceDocument) (string, error) {
	data := emailTemplateData{
		InvoiceID:       doc.InvoiceID,
		ClientName:      doc.ClientName,
		Description:     doc.Description,
		DueDate:         doc.DueDate,
		FormattedAmount: FormatCurrency(doc.Amount),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
