package storefront

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"

	"github.com/yangwenmai/storeforge/internal/model"
)

var contactTmpl = template.Must(template.New("contact").Parse(`<h2>Get in Touch</h2>
<p>We're here to help! Contact {{.Name}} with any questions about our products or services.</p>
<h3>Customer Service</h3>
<p>Email: {{.Email}}</p>
<p>Response time: Within 24 hours</p>
<h3>Business Hours</h3>
<p>Monday - Friday: 9:00 AM - 6:00 PM EST</p>
<p>Saturday - Sunday: 10:00 AM - 4:00 PM EST</p>
<h3>Returns &amp; Exchanges</h3>
<p>We accept returns within 30 days of purchase. Please contact us to initiate a return.</p>`))

var shippingTmpl = template.Must(template.New("shipping").Parse(`<h2>Shipping Information</h2>
<h3>Processing Time</h3>
<p>All {{.Name}} orders are processed within 1-2 business days. Orders are not shipped or delivered on weekends or holidays.</p>
<h3>Shipping Rates &amp; Delivery Estimates</h3>
<ul>
<li><strong>Standard Shipping:</strong> 5-7 business days - $5.99</li>
<li><strong>Express Shipping:</strong> 2-3 business days - $12.99</li>
<li><strong>Overnight Shipping:</strong> 1 business day - $24.99</li>
</ul>
<p><strong>Free shipping on orders over $50!</strong></p>
<h3>International Shipping</h3>
<p>We ship worldwide. International shipping rates and delivery times vary by destination.</p>
<h3>Returns</h3>
<p>We accept returns within 30 days of delivery. Items must be unused and in original packaging.</p>`))

var privacyTmpl = template.Must(template.New("privacy").Parse(`<h2>Privacy Policy</h2>
<h3>Information We Collect</h3>
<p>{{.Name}} collects information you provide directly to us, such as when you create an account, make a purchase, or contact us.</p>
<h3>How We Use Your Information</h3>
<ul>
<li>Process and fulfill your orders</li>
<li>Send you important updates about your order</li>
<li>Improve our products and services</li>
<li>Comply with legal obligations</li>
</ul>
<h3>Information Sharing</h3>
<p>We do not sell, trade, or otherwise transfer your personal information to third parties without your consent, except as described in this policy.</p>
<h3>Data Security</h3>
<p>We implement appropriate security measures to protect your personal information against unauthorized access, alteration, disclosure, or destruction.</p>
<h3>Contact Us</h3>
<p>If you have any questions about this Privacy Policy, please contact us at {{.Email}}.</p>`))

var faqTmpl = template.Must(template.New("faq").Parse(`<h1>{{.Title}}</h1>
{{- range .Items}}
<div class="faq-item"><h3>{{.Question}}</h3><p>{{.Answer}}</p></div>
{{- end}}`))

var pageTmpl = template.Must(template.New("page").Parse(`<h1>{{.Title}}</h1><div>{{.Body}}</div>`))

var productTmpl = template.Must(template.New("product").Parse(`<div>{{.Body}}</div>
{{- if .Benefits}}
<h3>Key Benefits</h3>
<ul>
{{- range .Benefits}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}`))

type policyData struct {
	Name  string
	Email string
}

func policy(storeName string) policyData {
	return policyData{Name: storeName, Email: SupportEmail(storeName)}
}

// SupportEmail derives the support address shown on the contact page.
func SupportEmail(storeName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(storeName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	domain := b.String()
	if domain == "" {
		domain = "store"
	}
	return "support@" + domain + ".com"
}

// ContactContent renders the contact page body.
func ContactContent(storeName string) string { return render(contactTmpl, policy(storeName)) }

// ShippingContent renders the shipping and returns policy body.
func ShippingContent(storeName string) string { return render(shippingTmpl, policy(storeName)) }

// PrivacyContent renders the privacy policy body.
func PrivacyContent(storeName string) string { return render(privacyTmpl, policy(storeName)) }

// PageHTML renders a page for the commerce platform. FAQ pages render their
// items; other pages wrap their content, which is already HTML or plain text.
func PageHTML(p model.Page) string {
	if len(p.Items) > 0 {
		return render(faqTmpl, p)
	}
	return render(pageTmpl, struct {
		Title string
		Body  template.HTML
	}{p.Title, template.HTML(bodyHTML(p.Content))})
}

// ProductHTML renders the product description and benefits list.
func ProductHTML(p model.ProductSection) string {
	return render(productTmpl, struct {
		Body     template.HTML
		Benefits []string
	}{template.HTML(bodyHTML(p.Description)), p.Benefits})
}

// bodyHTML keeps markup as is and turns plain text paragraphs into <p> blocks.
func bodyHTML(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "<") {
		return content
	}
	var b strings.Builder
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(template.HTMLEscapeString(para))
		b.WriteString("</p>")
	}
	return b.String()
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// Templates are static and data is plain strings.
		panic("storefront: render " + t.Name() + ": " + err.Error())
	}
	return buf.String()
}
