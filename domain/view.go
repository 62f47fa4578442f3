package domain

import "errors"

type ViewState string

const (
	ViewLoading     ViewState = "loading"
	ViewProcessing  ViewState = "processing"
	ViewCompleted   ViewState = "completed"
	ViewError       ViewState = "error"
	ViewNotFound    ViewState = "not_found"
	ViewUnavailable ViewState = "unavailable"
	ViewRedirect    ViewState = "redirect"
)

// DefaultRedirect is where a view for a missing interview sends the client.
const DefaultRedirect = "/"

// Terminal views end an observer's polling session.
func (s ViewState) Terminal() bool {
	return s == ViewCompleted || s == ViewError || s == ViewRedirect
}

type FeedbackView struct {
	State      ViewState  `json:"state"`
	Interview  *Interview `json:"interview,omitempty"`
	Feedback   *Feedback  `json:"feedback,omitempty"`
	Message    string     `json:"message,omitempty"`
	RedirectTo string     `json:"redirectTo,omitempty"`
}

// SelectView picks the view for the latest read. It is a pure function of its
// inputs: interview is nil when the interview does not exist, and err is the
// error returned by the feedback read, if any.
func SelectView(interview *Interview, feedback *Feedback, err error) FeedbackView {
	if interview == nil {
		return FeedbackView{State: ViewRedirect, RedirectTo: DefaultRedirect}
	}
	v := FeedbackView{Interview: interview}
	switch {
	case errors.Is(err, ErrFeedbackNotFound), err == nil && feedback == nil:
		v.State = ViewNotFound
		v.Message = "No feedback has been submitted for this interview yet."
	case err != nil:
		v.State = ViewUnavailable
		v.Message = "Failed to load feedback. Please try again later."
	case feedback.Status == StatusProcessing:
		v.State = ViewProcessing
		v.Feedback = feedback
		v.Message = "Feedback is still being generated..."
	case feedback.Status == StatusCompleted:
		v.State = ViewCompleted
		v.Feedback = feedback
	case feedback.Status == StatusError:
		v.State = ViewError
		v.Feedback = feedback
		v.Message = "There was an error generating your feedback."
	default:
		v.State = ViewUnavailable
		v.Message = "Invalid feedback data received."
	}
	return v
}
