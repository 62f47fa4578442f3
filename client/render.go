package client

import (
	"fmt"
	"io"

	"interview-coach/domain"
)

// Render writes a plain-text rendering of v.
func Render(w io.Writer, v domain.FeedbackView) {
	switch v.State {
	case domain.ViewLoading:
		fmt.Fprintln(w, "Loading feedback...")
	case domain.ViewProcessing:
		fmt.Fprintln(w, "Feedback is still being generated...")
	case domain.ViewNotFound, domain.ViewUnavailable:
		fmt.Fprintln(w, v.Message)
	case domain.ViewRedirect:
		fmt.Fprintf(w, "Interview not found, returning to %s\n", v.RedirectTo)
	case domain.ViewError:
		fmt.Fprintln(w, "There was an error generating your feedback.")
		if v.Feedback != nil && v.Feedback.ErrorMessage != "" {
			fmt.Fprintf(w, "Reason: %s\n", v.Feedback.ErrorMessage)
		}
		fmt.Fprintln(w, "Retake the interview to try again.")
	case domain.ViewCompleted:
		renderCompleted(w, v)
	default:
		fmt.Fprintf(w, "Unknown feedback state %q\n", v.State)
	}
}

func renderCompleted(w io.Writer, v domain.FeedbackView) {
	f := v.Feedback
	if f == nil {
		return
	}
	role := ""
	if v.Interview != nil {
		role = v.Interview.Role
	}
	fmt.Fprintf(w, "Feedback on the Interview - %s Interview\n", role)
	if f.TotalScore != nil {
		fmt.Fprintf(w, "Overall Impression: %d/100\n", *f.TotalScore)
	}
	if !f.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Date: %s\n", f.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))
	}
	fmt.Fprintf(w, "\n%s\n\nBreakdown of the Interview:\n", f.FinalAssessment)
	for i, c := range f.CategoryScores {
		fmt.Fprintf(w, "%d. %s (%d/100)\n   %s\n", i+1, c.Name, c.Score, c.Comment)
	}
	fmt.Fprintln(w, "\nStrengths:")
	for _, s := range f.Strengths {
		fmt.Fprintf(w, "  - %s\n", s)
	}
	fmt.Fprintln(w, "\nAreas for Improvement:")
	for _, a := range f.AreasForImprovement {
		fmt.Fprintf(w, "  - %s\n", a)
	}
}
