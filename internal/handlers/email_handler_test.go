package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"time2care_backend/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendContact(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/email/contact", "", map[string]interface{}{
		"to": "support@time2care.app", "subject": "Hello", "text": "Question about shifts",
	})

	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var resp struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "fake-1", resp.MessageID)

	sent, ok := ts.Mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "Hello", sent.Subject)
}

func TestSendContact_FailureIsPropagated(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	ts.Mailer.Err = testhelpers.DeliveryFailure()

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/email/contact", "", map[string]interface{}{
		"to": "support@time2care.app", "subject": "Hello", "text": "Question",
	})

	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Failed to send email"}`, body)
}

func TestSendContact_RequiresBody(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/email/contact", "", map[string]interface{}{
		"to": "support@time2care.app", "subject": "Hello",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
