package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "test@example.com"}, nil)
	assert.Nil(t, sender)
}

func TestNewSendGridSender_FromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "test@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, DefaultFromName, sender.fromName)

	sender = NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "test@example.com", FromName: "Sales"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Sales", sender.fromName)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "recipient@example.com", Subject: "Test", Body: "Body"})
	assert.Error(t, err)
}

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

func leadEmail() EmailMessage {
	return EmailMessage{
		To:         "sales@example.com",
		Subject:    "New qualified lead: Sara",
		Body:       "plain",
		HTML:       "<p>html</p>",
		ReplyTo:    "sara@mail.com",
		ReplyName:  "Sara",
		Categories: []string{CategoryQualifiedLead},
		CustomerID: "cust-1",
	}
}

func TestSendGridSender_SendBuildsLeadMail(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := newSendGridSender(fake, SendGridConfig{FromEmail: "shop@example.com"}, nil)

	require.NoError(t, sender.Send(context.Background(), leadEmail()))

	m := fake.sent
	require.NotNil(t, m)
	assert.Equal(t, "shop@example.com", m.From.Address)
	assert.Equal(t, DefaultFromName, m.From.Name)
	assert.Equal(t, "New qualified lead: Sara", m.Subject)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "sales@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "cust-1", m.Personalizations[0].CustomArgs["customer_id"])
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "plain", m.Content[0].Value)
	assert.Equal(t, "text/html", m.Content[1].Type)
	require.NotNil(t, m.ReplyTo)
	assert.Equal(t, "sara@mail.com", m.ReplyTo.Address)
	assert.Equal(t, "Sara", m.ReplyTo.Name)
	assert.Equal(t, []string{CategoryQualifiedLead}, m.Categories)
}

func TestSendGridSender_SendPlainOnly(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := newSendGridSender(fake, SendGridConfig{FromEmail: "shop@example.com", FromName: "Sales"}, nil)

	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "sales@example.com", Subject: "ping"}))

	m := fake.sent
	require.Len(t, m.Content, 1)
	assert.Equal(t, "ping", m.Content[0].Value)
	assert.Nil(t, m.ReplyTo)
	assert.Empty(t, m.Categories)
	assert.Empty(t, m.Personalizations[0].CustomArgs)
}

func TestSendGridSender_SendErrors(t *testing.T) {
	rejected := newSendGridSender(&fakeSendGrid{status: 400}, SendGridConfig{FromEmail: "shop@example.com"}, nil)
	assert.ErrorContains(t, rejected.Send(context.Background(), leadEmail()), "status 400")

	down := newSendGridSender(&fakeSendGrid{err: errors.New("dial tcp: timeout")}, SendGridConfig{FromEmail: "shop@example.com"}, nil)
	assert.ErrorContains(t, down.Send(context.Background(), leadEmail()), "timeout")
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	assert.NoError(t, sender.Send(context.Background(), EmailMessage{To: "recipient@example.com", Subject: "Test"}))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "shop@example.com"}, nil)
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "sales@example.com",
		Subject: "New lead",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Storefront Assistant <shop@example.com>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"sales@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "New lead", aws.ToString(fake.input.Content.Simple.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
	assert.Empty(t, fake.input.ReplyToAddresses)
	assert.Empty(t, fake.input.EmailTags)
}

func TestSESSender_SendLeadMetadata(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "shop@example.com"}, nil)

	require.NoError(t, sender.Send(context.Background(), leadEmail()))

	assert.Equal(t, []string{"sara@mail.com"}, fake.input.ReplyToAddresses)
	require.Len(t, fake.input.EmailTags, 2)
	assert.Equal(t, CategoryQualifiedLead, aws.ToString(fake.input.EmailTags[0].Name))
	assert.Equal(t, "customer_id", aws.ToString(fake.input.EmailTags[1].Name))
	assert.Equal(t, "cust-1", aws.ToString(fake.input.EmailTags[1].Value))
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "shop@example.com"}, nil)
	err := sender.Send(context.Background(), EmailMessage{To: "sales@example.com", Subject: "x"})
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
