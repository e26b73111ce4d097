package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKindDroppable(t *testing.T) {
	tests := []struct {
		kind     EventKind
		expected bool
	}{
		{EventJobStarted, false},
		{EventSiteStarted, false},
		{EventSiteProgress, true},
		{EventSiteCompleted, false},
		{EventSiteFailed, false},
		{EventFlightsFound, true},
		{EventJobCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.Droppable())
		})
	}
}
