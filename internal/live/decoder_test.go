package live

import (
	"testing"

	"gatepass/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Decode(t *testing.T) {
	d := NewDecoder(nil)

	tests := []struct {
		name        string
		frame       Frame
		expectError bool
		expectKind  domain.EventKind
		expectID    string
	}{
		{
			name:       "well-formed approval frame",
			frame:      Frame{Kind: "visit_approved", Data: []byte(`{"visit_id":"v1","visitor_name":"Asha"}`)},
			expectKind: domain.EventVisitApproved,
			expectID:   "v1",
		},
		{
			name:       "legacy _id field is normalized",
			frame:      Frame{Kind: "visit_rejected", Data: []byte(`{"_id":"v2"}`)},
			expectKind: domain.EventVisitRejected,
			expectID:   "v2",
		},
		{
			name:       "plain id field is normalized",
			frame:      Frame{Kind: "visit_cancelled", Data: []byte(`{"id":"v3"}`)},
			expectKind: domain.EventVisitCancelled,
			expectID:   "v3",
		},
		{
			name:       "visit_id wins over legacy spellings",
			frame:      Frame{Kind: "visit_approved", Data: []byte(`{"visit_id":"new","_id":"old"}`)},
			expectKind: domain.EventVisitApproved,
			expectID:   "new",
		},
		{
			name:        "unparsable body",
			frame:       Frame{Kind: "visit_approved", Data: []byte(`{not json`)},
			expectError: true,
		},
		{
			name:        "missing kind",
			frame:       Frame{Kind: "  ", Data: []byte(`{"visit_id":"v1"}`)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := d.Decode(tt.frame)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectKind, ev.Kind)
			assert.Equal(t, tt.expectID, ev.VisitID)
		})
	}
}

func TestDecoder_DispatchRoutesByKind(t *testing.T) {
	d := NewDecoder(nil)

	var approved, pending []string
	d.Handle(domain.EventVisitApproved, func(ev domain.Event) {
		approved = append(approved, ev.VisitID)
	})
	d.Handle(domain.EventNewVisitPending, func(ev domain.Event) {
		pending = append(pending, ev.VisitID)
	})

	d.Dispatch(Frame{Kind: "visit_approved", Data: []byte(`{"visit_id":"v1"}`)})
	d.Dispatch(Frame{Kind: "new_visit_pending", Data: []byte(`{"visit_id":"v2"}`)})
	// Known kind with no registered handler is silently dropped.
	d.Dispatch(Frame{Kind: "visit_rejected", Data: []byte(`{"visit_id":"v3"}`)})

	assert.Equal(t, []string{"v1"}, approved)
	assert.Equal(t, []string{"v2"}, pending)
}

func TestDecoder_DispatchMalformedFrameIsDropped(t *testing.T) {
	d := NewDecoder(nil)

	called := false
	d.Handle(domain.EventVisitApproved, func(domain.Event) { called = true })
	d.Default = func(domain.Event) { called = true }

	assert.NotPanics(t, func() {
		d.Dispatch(Frame{Kind: "visit_approved", Data: []byte("not structured data")})
	})
	assert.False(t, called, "a malformed frame must reach no handler")
}

func TestDecoder_UnknownKindGoesToDefault(t *testing.T) {
	d := NewDecoder(nil)

	handled := false
	d.Handle(domain.EventVisitApproved, func(domain.Event) { handled = true })

	var defaulted []domain.EventKind
	d.Default = func(ev domain.Event) { defaulted = append(defaulted, ev.Kind) }

	d.Dispatch(Frame{Kind: "visit_flagged", Data: []byte(`{"visit_id":"v9"}`)})

	assert.False(t, handled)
	assert.Equal(t, []domain.EventKind{domain.EventKind("visit_flagged")}, defaulted,
		"forward-compatible kinds are decoded and routed to the default handler")
}

func TestDecoder_UnknownKindWithoutDefaultIsIgnored(t *testing.T) {
	d := NewDecoder(nil)
	assert.NotPanics(t, func() {
		d.Dispatch(Frame{Kind: "visit_flagged", Data: []byte(`{"visit_id":"v9"}`)})
	})
}
