package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveMemoVariants(t *testing.T) {
	r := NewReferenceResolver("BXA")

	cases := map[string]string{
		"BXA#123":                          "123",
		"BXA-123":                          "123",
		"BXA123":                           "123",
		"bxa#123":                          "123",
		"BXA#123 Ung ho chien dich":        "123",
		"chuyen tien BXA#123":              "123",
		"random text BXA#123 more text":    "123",
		"ung ho   BXA-987654  cam on shop": "987654",
	}

	for memo, want := range cases {
		id, ok := r.Resolve("", memo)
		require.True(t, ok, "memo %q should resolve", memo)
		require.Equal(t, want, id, "memo %q", memo)
	}
}

func TestResolveMemoUUID(t *testing.T) {
	r := NewReferenceResolver("BXA")

	id, ok := r.Resolve("", "ung ho BXA#a1b2c3d4-e5f6-7890-abcd-ef0123456789")
	require.True(t, ok)
	require.Equal(t, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", id)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewReferenceResolver("BXA")

	for _, memo := range []string{
		"",
		"cam on nhieu",
		"ABX#123",
		"BXA#",
		"BXA#abc",
	} {
		_, ok := r.Resolve("", memo)
		require.False(t, ok, "memo %q should not resolve", memo)
	}
}

func TestResolveOrderRefWins(t *testing.T) {
	r := NewReferenceResolver("BXA")

	// A bare identifier carried by the provider beats whatever the memo says.
	id, ok := r.Resolve("555", "BXA#123")
	require.True(t, ok)
	require.Equal(t, "555", id)

	// Embedded token inside a composed order reference.
	id, ok = r.Resolve("ORDER-BXA#77-2026", "")
	require.True(t, ok)
	require.Equal(t, "77", id)

	// An unusable order reference falls back to the memo.
	id, ok = r.Resolve("opaque-ref", "BXA#123")
	require.True(t, ok)
	require.Equal(t, "123", id)
}

func TestResolveBareUUIDOrderRef(t *testing.T) {
	r := NewReferenceResolver("BXA")

	id, ok := r.Resolve("a1b2c3d4-e5f6-7890-abcd-ef0123456789", "")
	require.True(t, ok)
	require.Equal(t, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", id)
}
