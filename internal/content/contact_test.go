package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/holding-web/internal/cms"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func validForm() ContactForm {
	return ContactForm{Name: "Sara", Email: "sara@example.com", Subject: "Partnership", Message: "Hello"}
}

func TestContactFormValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validForm().Validate())

	cases := map[string]struct {
		form   ContactForm
		fields []string
	}{
		"empty":         {form: ContactForm{}, fields: []string{"name", "email", "subject", "message"}},
		"bad email":     {form: ContactForm{Name: "a", Email: "a@b", Subject: "s", Message: "m"}, fields: []string{"email"}},
		"spaces in at":  {form: ContactForm{Name: "a", Email: "a b@c.io", Subject: "s", Message: "m"}, fields: []string{"email"}},
		"blank message": {form: ContactForm{Name: "a", Email: "a@b.io", Subject: "s", Message: "   "}, fields: []string{"message"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.form.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.fields, verr.Fields)
		})
	}
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	tr := mapTranslator{"ar:contact.success": "تم إرسال رسالتك بنجاح"}
	svc := newTestService(t, src, WithTranslator(tr))
	notes := &recordingNotifier{}
	sub := svc.Submitter("ar", notes)

	form := validForm()
	form.Name = "  Sara  "
	res := sub.Submit(context.Background(), &form)

	require.True(t, res.Success)
	require.NoError(t, res.Err)
	require.Equal(t, ContactForm{}, form)
	require.Equal(t, "01TEST", res.Data.Key)
	require.Equal(t, "Sara", src.lastContact.Name)
	require.Equal(t, []Notice{{Level: LevelSuccess, Message: "تم إرسال رسالتك بنجاح"}}, notes.notices)
	require.False(t, sub.IsSubmitting())
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.contact = func(cms.ContactRequest, string) (cms.ContactResponse, error) {
		return cms.ContactResponse{Message: "spam detected"}, fmt.Errorf("%w: spam detected", cms.ErrSubmissionRejected)
	}
	svc := newTestService(t, src, WithTranslator(mapTranslator{"en:contact.error": "Failed to send"}))
	notes := &recordingNotifier{}
	sub := svc.Submitter("en", notes)

	form := validForm()
	res := sub.Submit(context.Background(), &form)

	require.False(t, res.Success)
	var serr *SubmissionError
	require.ErrorAs(t, res.Err, &serr)
	require.Equal(t, "spam detected", serr.Message)
	require.ErrorIs(t, res.Err, cms.ErrSubmissionRejected)
	require.Equal(t, validForm(), form)
	require.Equal(t, []Notice{{Level: LevelError, Message: "Failed to send"}}, notes.notices)
}

func TestSubmitInvalidFormSkipsNetwork(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	svc := newTestService(t, src)
	notes := &recordingNotifier{}

	form := ContactForm{Name: "x"}
	res := svc.Submitter("en", notes).Submit(context.Background(), &form)

	var verr *ValidationError
	require.ErrorAs(t, res.Err, &verr)
	require.Equal(t, 0, src.contactCalls)
	require.Empty(t, notes.notices)
	require.Equal(t, "x", form.Name)
}

func TestSubmitGuardSkipsWhileInFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	src := newFakeSource()
	src.contact = func(cms.ContactRequest, string) (cms.ContactResponse, error) {
		close(started)
		<-release
		return cms.ContactResponse{}, nil
	}
	svc := newTestService(t, src)
	sub := svc.Submitter("en", nil)

	done := make(chan SubmitResult, 1)
	go func() {
		form := validForm()
		done <- sub.Submit(context.Background(), &form)
	}()
	<-started
	require.True(t, sub.IsSubmitting())

	form := validForm()
	second := sub.Submit(context.Background(), &form)
	require.True(t, second.Skipped)
	require.False(t, second.Success)
	require.Equal(t, validForm(), form)

	close(release)
	first := <-done
	require.True(t, first.Success)
	require.Equal(t, 1, src.contactCalls)
	require.False(t, sub.IsSubmitting())
}

func TestSubmittersGuardPerClient(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	src := newFakeSource()
	src.contact = func(cms.ContactRequest, string) (cms.ContactResponse, error) {
		started <- struct{}{}
		<-release
		return cms.ContactResponse{}, nil
	}
	svc := newTestService(t, src)
	reg := NewSubmitters(svc)

	results := make(chan SubmitResult, 2)
	for _, client := range []string{"alice", "bob"} {
		go func() {
			form := validForm()
			results <- reg.Submit(context.Background(), client, "en", &form, nil)
		}()
	}
	<-started
	<-started

	form := validForm()
	require.True(t, reg.Submit(context.Background(), "alice", "en", &form, nil).Skipped)

	close(release)
	require.True(t, (<-results).Success)
	require.True(t, (<-results).Success)
	require.Equal(t, 2, src.contactCalls)

	form = validForm()
	require.True(t, reg.Submit(context.Background(), "alice", "en", &form, nil).Success)
}
