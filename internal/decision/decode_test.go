package decision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidDecision(t *testing.T) {
	raw := `{
		"nudgeId": "n1",
		"templateId": "tooltip",
		"title": "New: saved searches",
		"quadrant": "topRight",
		"frictionType": "soft",
		"expiresAt": "2030-01-01T00:00:00Z",
		"extra": {"step": 1, "flow": "onboarding", "beta": true, "note": null}
	}`

	wire, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, wire)

	assert.Equal(t, "n1", wire.NudgeID)
	assert.Equal(t, TemplateTooltip, wire.TemplateID)
	assert.Equal(t, QuadrantTopRight, wire.Quadrant)
	assert.Equal(t, FrictionSoft, wire.FrictionType)
	require.NotNil(t, wire.ExpiresAt)
	assert.Equal(t, 2030, wire.ExpiresAt.Year())
	assert.Equal(t, "onboarding", wire.Extra["flow"])
}

func TestDecodeNullClears(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "\nnull\n"} {
		wire, err := Decode([]byte(raw))
		require.NoError(t, err, "input %q", raw)
		assert.Nil(t, wire, "input %q", raw)
	}
}

func TestDecodeUnknownTemplateIsNotASchemaError(t *testing.T) {
	wire, err := Decode([]byte(`{"nudgeId":"n1","templateId":"carousel","quadrant":"middle"}`))
	require.NoError(t, err)
	assert.Equal(t, TemplateID("carousel"), wire.TemplateID)
	assert.Equal(t, Quadrant("middle"), wire.Quadrant)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty id":          `{"nudgeId":"","templateId":"tooltip"}`,
		"missing template":  `{"nudgeId":"n1"}`,
		"nested extra":      `{"nudgeId":"n1","templateId":"tooltip","extra":{"nested":{"a":1}}}`,
		"bad expiry":        `{"nudgeId":"n1","templateId":"tooltip","expiresAt":"tomorrow"}`,
		"not an object":     `["n1"]`,
		"syntax":            `{"nudgeId":`,
		"wrong type for id": `{"nudgeId":42,"templateId":"tooltip"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			wire, err := Decode([]byte(raw))
			require.Error(t, err)
			assert.Nil(t, wire)
			assert.True(t, errors.Is(err, ErrInvalidDecision), "got %v", err)
		})
	}
}

func TestValidateMissingID(t *testing.T) {
	assert.ErrorIs(t, WireNudgeDecision{}.Validate(), ErrMissingID)
	assert.NoError(t, WireNudgeDecision{NudgeID: "n1"}.Validate())
}
