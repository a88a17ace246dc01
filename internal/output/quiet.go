package output

import (
	"fmt"
	"io"

	"github.com/rohankatakam/devai/internal/models"
)

// QuietFormatter prints a one-line summary
type QuietFormatter struct{}

func (f *QuietFormatter) Format(r *Report, w io.Writer) error {
	if len(r.Narratives) > 0 {
		late := 0
		for _, n := range r.Narratives {
			if n.EstimatedDays != nil && n.ActualDays > *n.EstimatedDays {
				late++
			}
		}
		_, err := fmt.Fprintf(w, "📖 %d narratives generated, %d over estimate\n", len(r.Narratives), late)
		return err
	}

	if len(r.Anomalies) == 0 {
		_, err := fmt.Fprintf(w, "✅ No anomalies detected\n")
		return err
	}
	counts := map[models.Severity]int{}
	for _, a := range r.Anomalies {
		counts[a.Severity]++
	}
	_, err := fmt.Fprintf(w, "⚠️  %d anomalies (%d high, %d medium, %d low)\nRun 'devai detect --format standard' for details\n",
		len(r.Anomalies), counts[models.SeverityHigh], counts[models.SeverityMedium], counts[models.SeverityLow])
	return err
}
