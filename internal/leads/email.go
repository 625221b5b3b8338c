package leads

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const (
	companyFallback = "N/A"
	messageFallback = "No specific notes provided."
)

type emailItem struct {
	Name     string
	Category string
	Slug     string
	ImageURL string
}

type emailData struct {
	Reference   string
	Name        string
	Company     string
	Email       string
	Phone       string
	Message     string
	Items       []emailItem
	ItemCount   int
	SubmittedAt string
}

var leadEmailTemplate = template.Must(template.New("lead").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #b45309;">New Quote Request {{.Reference}}</h2>
  <table cellpadding="6" style="border-collapse: collapse; margin-bottom: 24px;">
    <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
    <tr><td><strong>Company</strong></td><td>{{.Company}}</td></tr>
    <tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
    <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
    <tr><td><strong>Message</strong></td><td>{{.Message}}</td></tr>
    <tr><td><strong>Submitted</strong></td><td>{{.SubmittedAt}}</td></tr>
  </table>
  <h3>Requested Products ({{.ItemCount}})</h3>
  <table cellpadding="8" style="border-collapse: collapse; width: 100%;">
    <tr style="background: #f3f4f6; text-align: left;">
      <th>Image</th><th>Product</th><th>Category</th><th>Slug</th>
    </tr>
    {{- range .Items}}
    <tr style="border-bottom: 1px solid #e5e7eb;">
      <td>{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}" width="60" height="60" style="object-fit: cover;">{{end}}</td>
      <td>{{.Name}}</td>
      <td>{{.Category}}</td>
      <td>{{.Slug}}</td>
    </tr>
    {{- end}}
  </table>
</body>
</html>
`))

func renderLeadEmail(data emailData) (string, error) {
	var buf bytes.Buffer
	if err := leadEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render lead email: %w", err)
	}
	return buf.String(), nil
}

func formatSubmittedAt(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}
