package offer

import (
	"context"
	"errors"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	loopfsm "github.com/looplab/fsm"
)

// Event names a lifecycle transition of an offer.
type Event string

const (
	// EventReady queues a draft request for publication.
	EventReady Event = "ready"
	// EventUnready pulls a request back out of the queue.
	EventUnready Event = "unready"
	// EventPublish promotes the oldest ready request.
	EventPublish Event = "publish"
	// EventRetire hides a published offer again.
	EventRetire Event = "retire"
	// EventRepublish restores a retired offer.
	EventRepublish Event = "republish"
)

type transition struct {
	Event Event
	Src   model.State
	Dst   model.State
}

var transitions = []transition{
	{EventReady, model.StateDraft, model.StateReady},
	{EventUnready, model.StateReady, model.StateDraft},
	{EventPublish, model.StateReady, model.StatePublished},
	{EventRetire, model.StatePublished, model.StateRetired},
	{EventRepublish, model.StateRetired, model.StatePublished},
}

// events converts the transition table into looplab/fsm EventDesc format,
// consolidating transitions with the same event and destination.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// apply checks that event is legal from the offer's current state and returns
// the destination state. looplab/fsm is stateful, so a short-lived machine is
// built per call, initialized with the current state.
func apply(ctx context.Context, current model.State, event Event) (model.State, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", errdef.NewConflict("cannot %s an offer in state %q", event, current)
		}
		return "", err
	}

	return model.State(machine.Current()), nil
}
