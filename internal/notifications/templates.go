package notifications

import (
	"bytes"
	"html/template"
)

var emailTemplates = template.Must(template.New("notifications").Parse(`
{{define "document"}}<h2>Document Expiry Notification</h2>
<p>The {{.Doc.Type}} for vehicle {{.Doc.Vehicle.Make}} {{.Doc.Vehicle.Model}} ({{.Doc.Vehicle.PlateNumber}}) will expire in {{.Days}} days.</p>
<p><strong>Document:</strong> {{.Doc.Name}}</p>
<p><strong>Expiry Date:</strong> {{.Doc.ExpiryDate.Format "2006-01-02"}}</p>
<p>Please renew the document before the expiry date.</p>{{end}}

{{define "insurance"}}<h2>Insurance Expiry Notification</h2>
<p>The insurance policy for vehicle {{.Policy.Vehicle.Make}} {{.Policy.Vehicle.Model}} ({{.Policy.Vehicle.PlateNumber}}) will expire in {{.Days}} days.</p>
<p><strong>Policy Number:</strong> {{.Policy.PolicyNumber}}</p>
<p><strong>Provider:</strong> {{.Policy.Provider}}</p>
<p><strong>Expiry Date:</strong> {{.Policy.EndDate.Format "2006-01-02"}}</p>
<p>Please renew the insurance policy before it expires.</p>{{end}}

{{define "service"}}<h2>Vehicle Service Reminder</h2>
<p>Vehicle {{.Due.Vehicle.Make}} {{.Due.Vehicle.Model}} ({{.Due.Vehicle.PlateNumber}}) needs service soon.</p>
<p><strong>Current Mileage:</strong> {{.Due.Mileage}} km</p>
<p><strong>Service Due At:</strong> {{.Due.NextDueKm}} km</p>
<p><strong>Remaining:</strong> {{.Remaining}} km</p>
<p>Please schedule the service appointment.</p>{{end}}

{{define "lease"}}<h2>Lease Expiry Notification</h2>
<p>The lease contract for vehicle {{.Lease.Vehicle.Make}} {{.Lease.Vehicle.Model}} ({{.Lease.Vehicle.PlateNumber}}) will end in {{.Days}} days.</p>
<p><strong>Leasing Company:</strong> {{.Lease.LeasingCompany}}</p>
<p><strong>Contract Number:</strong> {{.Lease.ContractNumber}}</p>
<p><strong>End Date:</strong> {{.Lease.EndDate.Format "2006-01-02"}}</p>
<p>Please contact the leasing company to discuss renewal or return options.</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
