// Package scans implements the scan analysis pipeline: submit an image to
// the remote inference endpoint, persist the structured result, and render
// it on request.
package scans

import (
	"fmt"
	"strconv"
)

// Result is the structured output of the inference endpoint for one
// uploaded image. Only class_name and confidence are guaranteed; every
// other field is optional and its presence is explicit, never inferred.
type Result struct {
	ClassName       string    `json:"class_name"`
	Confidence      float64   `json:"confidence"`
	Explanation     *string   `json:"explanation,omitempty"`
	Gradcam         *string   `json:"gradcam,omitempty"`
	Findings        []Finding `json:"findings,omitempty"`
	HeartRate       *float64  `json:"heartRate,omitempty"`
	QRSInterval     *float64  `json:"qrsInterval,omitempty"`
	QTInterval      *float64  `json:"qtInterval,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

// Finding is one clinically-flagged sub-observation within a Result.
type Finding struct {
	Type        string   `json:"type"`
	Severity    *string  `json:"severity,omitempty"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// View is the rendered presentation of a Result. Absent source fields are
// omitted, never defaulted.
type View struct {
	Badge           string        `json:"badge"`
	Severity        string        `json:"severity"`
	ConfidenceText  string        `json:"confidence_text"`
	Explanation     string        `json:"explanation,omitempty"`
	GradcamDataURI  string        `json:"gradcam_data_uri,omitempty"`
	Findings        []FindingView `json:"findings,omitempty"`
	Metrics         []MetricView  `json:"metrics,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// FindingView is a rendered Finding.
type FindingView struct {
	Type           string `json:"type"`
	Severity       string `json:"severity,omitempty"`
	Description    string `json:"description"`
	ConfidenceText string `json:"confidence_text,omitempty"`
}

// MetricView is one rendered clinical metric.
type MetricView struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Render produces the presentation of a result. It is a pure function of
// the result: healthy scans get a "Healthy" badge, everything else is
// flagged "Abnormal"; confidence is shown as a percentage with one decimal.
func Render(r *Result) View {
	v := View{
		ConfidenceText: fmt.Sprintf("Confidence: %.1f%%", r.Confidence*100),
	}
	if r.ClassName == "healthy" {
		v.Badge = "Healthy"
		v.Severity = "normal"
	} else {
		v.Badge = "Abnormal"
		v.Severity = "abnormal"
	}

	if r.Explanation != nil {
		v.Explanation = *r.Explanation
	}
	if r.Gradcam != nil {
		v.GradcamDataURI = "data:image/png;base64," + *r.Gradcam
	}

	for _, f := range r.Findings {
		fv := FindingView{
			Type:        f.Type,
			Description: f.Description,
		}
		if f.Severity != nil {
			fv.Severity = *f.Severity
		}
		if f.Confidence != nil {
			fv.ConfidenceText = fmt.Sprintf("Confidence: %s%%", formatNumber(*f.Confidence))
		}
		v.Findings = append(v.Findings, fv)
	}

	if r.HeartRate != nil {
		v.Metrics = append(v.Metrics, MetricView{Label: "Heart Rate", Value: formatNumber(*r.HeartRate) + " bpm"})
	}
	if r.QRSInterval != nil {
		v.Metrics = append(v.Metrics, MetricView{Label: "QRS Interval", Value: formatNumber(*r.QRSInterval) + " ms"})
	}
	if r.QTInterval != nil {
		v.Metrics = append(v.Metrics, MetricView{Label: "QT Interval", Value: formatNumber(*r.QTInterval) + " ms"})
	}

	v.Recommendations = r.Recommendations
	return v
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
