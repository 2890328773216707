package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"finitefield.org/holding-web/internal/cms"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactForm is the editable contact form state.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks required fields and the email shape.
func (f ContactForm) Validate() error {
	var fields []string
	if strings.TrimSpace(f.Name) == "" {
		fields = append(fields, "name")
	}
	if email := strings.TrimSpace(f.Email); email == "" || !emailPattern.MatchString(email) {
		fields = append(fields, "email")
	}
	if strings.TrimSpace(f.Subject) == "" {
		fields = append(fields, "subject")
	}
	if strings.TrimSpace(f.Message) == "" {
		fields = append(fields, "message")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (f ContactForm) request() cms.ContactRequest {
	return cms.ContactRequest{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	}
}

// ValidationError lists the invalid form fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("content: invalid contact form fields [%s]", strings.Join(e.Fields, ", "))
}

// SubmissionError wraps a failed contact submission.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("content: contact submission failed: %s", e.Message)
	}
	return fmt.Sprintf("content: contact submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Level is the severity of a user-facing notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice is a localized user-facing message.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notices raised by submissions.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// SubmitResult reports the outcome of Submit.
type SubmitResult struct {
	Success bool
	// Skipped is set when another submission from the same submitter was in flight.
	Skipped bool
	Data    cms.ContactResponse
	Notice  Notice
	Err     error
}

// Submitter sends contact forms, allowing one submission at a time.
type Submitter struct {
	svc        *Service
	notifier   Notifier
	lang       atomic.Value
	submitting atomic.Bool
}

// Submitter returns a submitter in lang. n may be nil.
func (s *Service) Submitter(lang string, n Notifier) *Submitter {
	if n == nil {
		n = NotifierFunc(func(context.Context, Notice) {})
	}
	sub := &Submitter{svc: s, notifier: n}
	sub.lang.Store(s.Lang(lang))
	return sub
}

// SetLanguage changes the language of subsequent notices and submissions.
func (s *Submitter) SetLanguage(lang string) {
	s.lang.Store(s.svc.Lang(lang))
}

// IsSubmitting reports whether a submission is in flight.
func (s *Submitter) IsSubmitting() bool {
	return s.submitting.Load()
}

// Submit validates and sends form. On success form is cleared; on failure it is kept.
func (s *Submitter) Submit(ctx context.Context, form *ContactForm) SubmitResult {
	if form == nil {
		form = &ContactForm{}
	}
	lang := s.lang.Load().(string)
	tr := s.svc.translator

	if err := form.Validate(); err != nil {
		return SubmitResult{Err: err, Notice: Notice{Level: LevelWarning, Message: tr.T(lang, "contact.invalid")}}
	}
	if !s.submitting.CompareAndSwap(false, true) {
		return SubmitResult{Skipped: true, Notice: Notice{Level: LevelWarning, Message: tr.T(lang, "contact.busy")}}
	}
	defer s.submitting.Store(false)

	resp, err := s.svc.src.SubmitContact(ctx, form.request(), lang)
	if err != nil {
		notice := Notice{Level: LevelError, Message: tr.T(lang, "contact.error")}
		s.notifier.Notify(ctx, notice)
		subErr := &SubmissionError{Err: err}
		if errors.Is(err, cms.ErrSubmissionRejected) {
			subErr.Message = resp.Message
		}
		s.svc.logger.Warn("contact submission failed", zap.String("lang", lang), zap.Error(err))
		return SubmitResult{Data: resp, Notice: notice, Err: subErr}
	}

	notice := Notice{Level: LevelSuccess, Message: tr.T(lang, "contact.success")}
	s.notifier.Notify(ctx, notice)
	*form = ContactForm{}
	return SubmitResult{Success: true, Data: resp, Notice: notice}
}

// Submitters keeps one Submitter per client so concurrent posts from the
// same client are guarded while different clients proceed independently.
type Submitters struct {
	svc *Service
	mu  sync.Mutex
	set map[string]*Submitter
}

// NewSubmitters returns an empty registry over svc.
func NewSubmitters(svc *Service) *Submitters {
	return &Submitters{svc: svc, set: make(map[string]*Submitter)}
}

// Submit runs form through the submitter registered for client.
func (r *Submitters) Submit(ctx context.Context, client, lang string, form *ContactForm, n Notifier) SubmitResult {
	r.mu.Lock()
	sub, ok := r.set[client]
	if !ok {
		sub = r.svc.Submitter(lang, n)
		r.set[client] = sub
	}
	r.mu.Unlock()

	if ok && !sub.IsSubmitting() {
		sub.SetLanguage(lang)
	}
	res := sub.Submit(ctx, form)

	if !res.Skipped {
		r.mu.Lock()
		if r.set[client] == sub && !sub.IsSubmitting() {
			delete(r.set, client)
		}
		r.mu.Unlock()
	}
	return res
}
