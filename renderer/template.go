package renderer

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/infrawatch/infrawatch/resources"
)

// TemplateData represents data passed to report templates
type TemplateData struct {
	SubscriptionID string
	Records        []resources.VMRecord
	Summary        Summary
}

// RenderTemplate renders the template at templatePath with the inventory
func (r *Renderer) RenderTemplate(templatePath string, inv resources.Inventory) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}

	tmpl, err := template.New("report").Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	data := TemplateData{
		SubscriptionID: inv.SubscriptionID,
		Records:        inv.Records,
		Summary:        Summarize(inv.Records),
	}

	// Render into a buffer so a failing template writes nothing
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	_, err = r.out.Write(buf.Bytes())
	return err
}
