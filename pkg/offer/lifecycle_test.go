package offer

import (
	"context"
	"testing"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_LegalTransitions(t *testing.T) {
	tests := []struct {
		current model.State
		event   Event
		want    model.State
	}{
		{model.StateDraft, EventReady, model.StateReady},
		{model.StateReady, EventUnready, model.StateDraft},
		{model.StateReady, EventPublish, model.StatePublished},
		{model.StatePublished, EventRetire, model.StateRetired},
		{model.StateRetired, EventRepublish, model.StatePublished},
	}

	for _, test := range tests {
		t.Run(string(test.event), func(t *testing.T) {
			got, err := apply(context.Background(), test.current, test.event)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestApply_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current model.State
		event   Event
	}{
		{"publish a draft", model.StateDraft, EventPublish},
		{"publish twice", model.StatePublished, EventPublish},
		{"ready a published offer", model.StatePublished, EventReady},
		{"retire a request", model.StateReady, EventRetire},
		{"republish a draft", model.StateDraft, EventRepublish},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := apply(context.Background(), test.current, test.event)
			require.Error(t, err)
			assert.True(t, errdef.IsConflict(err))
		})
	}
}
