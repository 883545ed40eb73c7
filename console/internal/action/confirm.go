package action

import "context"

// Prompt describes a change awaiting confirmation.
type Prompt struct {
	Action  string
	Target  string
	Message string

	// Dependent data the change removes, if any
	Removes []string

	// When set, the user must type this text exactly to proceed
	TypeToConfirm string
}

// Answer is the user's response to a Prompt.
type Answer struct {
	Confirmed bool
	Typed     string
}

// Confirmer asks the user to confirm a change.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (Answer, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (Answer, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (Answer, error) {
	return f(ctx, p)
}

type declineAll struct{}

func (declineAll) Confirm(context.Context, Prompt) (Answer, error) {
	return Answer{}, nil
}
