package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeRequiresHubIdentity(t *testing.T) {
	assert.True(t, Message{Status: StatusAuthRequired, HubIdentity: "hub-a"}.IsChallenge())
	assert.False(t, Message{Status: StatusAuthRequired}.IsChallenge(), "identity-less challenge accepted")
	assert.False(t, Message{Status: StatusAuth, HubIdentity: "hub-a"}.IsChallenge())
}

func TestGrantRequiresBothCredentials(t *testing.T) {
	grant := Message{Status: StatusAuth, Result: ResultGranted, SessionID: "s", Token: "t"}
	assert.True(t, grant.IsGrant())

	assert.False(t, Message{Status: StatusAuth, Result: ResultGranted, SessionID: "s"}.IsGrant())
	assert.False(t, Message{Status: StatusAuth, Result: ResultGranted, Token: "t"}.IsGrant())
	assert.False(t, Message{Status: StatusAuth, SessionID: "s", Token: "t"}.IsGrant())
}

func TestStaleSessionDistinguishesDenial(t *testing.T) {
	assert.True(t, Message{Status: StatusError, Reason: ReasonExpired}.StaleSession())
	assert.True(t, Message{Status: StatusError, Reason: ReasonUnknown}.StaleSession())
	assert.False(t, Message{Status: StatusError, Reason: ReasonDenied}.StaleSession(),
		"a denial must not be recoverable as stale")
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(SessionAuth("sess-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"auth","session_id":"sess-1"}`, string(data))

	data, err = json.Marshal(PairingRequest("12345678", "laptop1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"auth","pairing_code":"12345678","hostname":"laptop1"}`, string(data))
}

func TestChallengeWireFormat(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"status":"auth_required","hub_identity":"hub-abc123"}`), &msg))
	assert.True(t, msg.IsChallenge())
	assert.Equal(t, "hub-abc123", msg.HubIdentity)
}
