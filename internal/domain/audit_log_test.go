package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditDetailsTextJSON(t *testing.T) {
	details := TextDetails(`Bounty "Fix parser" posted for 0.5 BTC.`)

	raw, err := json.Marshal(details)
	require.NoError(t, err)
	assert.Equal(t, `"Bounty \"Fix parser\" posted for 0.5 BTC."`, string(raw))

	var decoded AuditDetails
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.False(t, decoded.IsStructured())
	assert.Equal(t, details.Text, decoded.Text)
}

func TestAuditDetailsStructuredJSON(t *testing.T) {
	details := StructuredDetails(map[string]any{"btc_amount": 0.5})

	raw, err := json.Marshal(details)
	require.NoError(t, err)
	assert.JSONEq(t, `{"btc_amount":0.5}`, string(raw))

	var decoded AuditDetails
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.True(t, decoded.IsStructured())
	assert.Equal(t, 0.5, decoded.Data["btc_amount"])
}

func TestAuditDetailsUnmarshalRejectsOtherShapes(t *testing.T) {
	var decoded AuditDetails
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &decoded))
}
