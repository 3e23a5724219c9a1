package checkout

import "slices"

type Step string

const (
	StepDeliveryMethod Step = "DELIVERY_METHOD"
	StepContactInfo    Step = "CONTACT_INFO"
	StepShipping       Step = "ADDRESS_OR_PICKUP"
	StepReview         Step = "REVIEW"
	StepCompleted      Step = "COMPLETED"
)

// transitions lists, per step, the steps it may move to. Forward moves are
// one step at a time; back moves re-enter the previous step.
var transitions = map[Step][]Step{
	StepDeliveryMethod: {StepContactInfo},
	StepContactInfo:    {StepShipping, StepDeliveryMethod},
	StepShipping:       {StepReview, StepContactInfo},
	StepReview:         {StepCompleted, StepShipping},
	StepCompleted:      {},
}

var order = []Step{StepDeliveryMethod, StepContactInfo, StepShipping, StepReview, StepCompleted}

func CanTransitionTo(from, to Step) bool {
	return slices.Contains(transitions[from], to)
}

func (s Step) IsTerminal() bool {
	return s == StepCompleted
}

// Next is the forward step, empty for the terminal one.
func (s Step) Next() Step {
	i := slices.Index(order, s)
	if i < 0 || i+1 >= len(order) {
		return ""
	}
	return order[i+1]
}

// Previous is the step Back returns to, empty for the first one.
func (s Step) Previous() Step {
	i := slices.Index(order, s)
	if i <= 0 || s.IsTerminal() {
		return ""
	}
	return order[i-1]
}

func (s Step) Valid() bool {
	return slices.Contains(order, s)
}

func (s Step) String() string {
	return string(s)
}
